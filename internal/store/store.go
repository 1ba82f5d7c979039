// Package store provides the persistence layer. It speaks SQLite by
// default and PostgreSQL when given a postgres:// DSN; all queries are
// written with ? placeholders and rebound per dialect.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store wraps the database handle and hands out typed repositories.
type Store struct {
	db      *sqlx.DB
	dialect string
}

// Open connects to the database named by dsn and runs migrations.
// A dsn beginning with postgres:// or postgresql:// selects PostgreSQL;
// anything else is treated as a SQLite file path.
func Open(dsn string) (*Store, error) {
	var (
		db  *sqlx.DB
		err error
		s   *Store
	)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s = &Store{db: db, dialect: "postgres"}
	} else {
		if err := EnsureDir(filepath.Dir(dsn)); err != nil {
			return nil, err
		}
		db, err = sqlx.Connect("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// Single writer keeps modernc's file locking honest.
		db.SetMaxOpenConns(1)
		s = &Store{db: db, dialect: "sqlite"}
		if err := s.applyPragmas(); err != nil {
			db.Close()
			return nil, err
		}
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying handle.
func (s *Store) Close() error { return s.db.Close() }

// Dialect reports which backend is in use ("sqlite" or "postgres").
func (s *Store) Dialect() string { return s.dialect }

func (s *Store) Tricks() TrickRepo         { return &trickRepo{db: s.db} }
func (s *Store) Statements() StatementRepo { return &statementRepo{db: s.db} }
func (s *Store) Sessions() SessionRepo     { return &sessionRepo{db: s.db} }
func (s *Store) Responses() ResponseRepo   { return &responseRepo{db: s.db} }
func (s *Store) Progress() ProgressRepo    { return &progressRepo{db: s.db} }
func (s *Store) Reminders() ReminderRepo   { return &reminderRepo{db: s.db} }

func (s *Store) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) migrate() error {
	schema := sqliteSchema
	if s.dialect == "postgres" {
		schema = postgresSchema
	}
	for _, stmt := range strings.Split(schema, ";\n\n") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// ResetUser deletes every row belonging to userID across all learner
// tables in one transaction. The catalog tables are untouched.
func (s *Store) ResetUser(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM responses WHERE user_id = ?`,
		`DELETE FROM sessions WHERE user_id = ?`,
		`DELETE FROM progress WHERE user_id = ?`,
		`DELETE FROM reminder_tracking WHERE user_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, tx.Rebind(q), userID); err != nil {
			return fmt.Errorf("reset user %d: %w", userID, err)
		}
	}
	return tx.Commit()
}

// EnsureDir creates dir and its parents if missing. An empty or "." dir
// is a no-op so relative paths like "reframe.db" stay usable.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// DefaultDBPath returns the per-user default SQLite location.
func DefaultDBPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "reframebot.db"
	}
	return filepath.Join(base, "reframebot", "reframebot.db")
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tricks (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    definition TEXT NOT NULL,
    keywords   TEXT NOT NULL DEFAULT '[]',
    examples   TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS statements (
    id         INTEGER PRIMARY KEY,
    statement  TEXT NOT NULL,
    category   TEXT NOT NULL DEFAULT 'general',
    difficulty TEXT NOT NULL DEFAULT 'medium'
);

CREATE TABLE IF NOT EXISTS sessions (
    id                  TEXT PRIMARY KEY,
    user_id             INTEGER NOT NULL,
    statement_id        INTEGER NOT NULL REFERENCES statements(id),
    status              TEXT NOT NULL DEFAULT 'active',
    current_trick_index INTEGER NOT NULL DEFAULT 0,
    started_at          TIMESTAMP NOT NULL,
    completed_at        TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_status ON sessions(user_id, status);

CREATE TABLE IF NOT EXISTS responses (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id   TEXT NOT NULL REFERENCES sessions(id),
    user_id      INTEGER NOT NULL,
    trick_id     INTEGER NOT NULL REFERENCES tricks(id),
    statement_id INTEGER NOT NULL REFERENCES statements(id),
    response     TEXT NOT NULL,
    score        REAL NOT NULL DEFAULT 0,
    is_correct   INTEGER NOT NULL DEFAULT 0,
    feedback     TEXT NOT NULL DEFAULT '',
    analysis     TEXT NOT NULL DEFAULT '{}',
    created_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_session_trick ON responses(session_id, trick_id);

CREATE TABLE IF NOT EXISTS progress (
    user_id          INTEGER NOT NULL,
    trick_id         INTEGER NOT NULL REFERENCES tricks(id),
    mastery_level    INTEGER NOT NULL DEFAULT 0,
    total_attempts   INTEGER NOT NULL DEFAULT 0,
    correct_attempts INTEGER NOT NULL DEFAULT 0,
    last_practiced   TIMESTAMP,
    created_at       TIMESTAMP NOT NULL,
    updated_at       TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id, trick_id)
);

CREATE TABLE IF NOT EXISTS reminder_tracking (
    user_id            INTEGER PRIMARY KEY,
    last_practice_date TIMESTAMP,
    last_reminder_date TIMESTAMP,
    reminder_count     INTEGER NOT NULL DEFAULT 0,
    reminders_enabled  INTEGER NOT NULL DEFAULT 1,
    created_at         TIMESTAMP NOT NULL,
    updated_at         TIMESTAMP NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tricks (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    definition TEXT NOT NULL,
    keywords   TEXT NOT NULL DEFAULT '[]',
    examples   TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS statements (
    id         INTEGER PRIMARY KEY,
    statement  TEXT NOT NULL,
    category   TEXT NOT NULL DEFAULT 'general',
    difficulty TEXT NOT NULL DEFAULT 'medium'
);

CREATE TABLE IF NOT EXISTS sessions (
    id                  TEXT PRIMARY KEY,
    user_id             BIGINT NOT NULL,
    statement_id        INTEGER NOT NULL REFERENCES statements(id),
    status              TEXT NOT NULL DEFAULT 'active',
    current_trick_index INTEGER NOT NULL DEFAULT 0,
    started_at          TIMESTAMPTZ NOT NULL,
    completed_at        TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_status ON sessions(user_id, status);

CREATE TABLE IF NOT EXISTS responses (
    id           BIGSERIAL PRIMARY KEY,
    session_id   TEXT NOT NULL REFERENCES sessions(id),
    user_id      BIGINT NOT NULL,
    trick_id     INTEGER NOT NULL REFERENCES tricks(id),
    statement_id INTEGER NOT NULL REFERENCES statements(id),
    response     TEXT NOT NULL,
    score        DOUBLE PRECISION NOT NULL DEFAULT 0,
    is_correct   BOOLEAN NOT NULL DEFAULT FALSE,
    feedback     TEXT NOT NULL DEFAULT '',
    analysis     TEXT NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_responses_session_trick ON responses(session_id, trick_id);

CREATE TABLE IF NOT EXISTS progress (
    user_id          BIGINT NOT NULL,
    trick_id         INTEGER NOT NULL REFERENCES tricks(id),
    mastery_level    INTEGER NOT NULL DEFAULT 0,
    total_attempts   INTEGER NOT NULL DEFAULT 0,
    correct_attempts INTEGER NOT NULL DEFAULT 0,
    last_practiced   TIMESTAMPTZ,
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, trick_id)
);

CREATE TABLE IF NOT EXISTS reminder_tracking (
    user_id            BIGINT PRIMARY KEY,
    last_practice_date TIMESTAMPTZ,
    last_reminder_date TIMESTAMPTZ,
    reminder_count     INTEGER NOT NULL DEFAULT 0,
    reminders_enabled  BOOLEAN NOT NULL DEFAULT TRUE,
    created_at         TIMESTAMPTZ NOT NULL,
    updated_at         TIMESTAMPTZ NOT NULL
);
`
