package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SessionRepo persists learning sessions. Sessions are never deleted;
// completed and abandoned rows stay as history.
type SessionRepo interface {
	Create(ctx context.Context, s *Session) error
	ByID(ctx context.Context, id string) (*Session, error)
	ActiveForUser(ctx context.Context, userID int64) (*Session, error)
	SetCursor(ctx context.Context, id string, cursor int) error
	Finish(ctx context.Context, id string, status SessionStatus, at time.Time) error
	History(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error)
	StaleActive(ctx context.Context, before time.Time) ([]Session, error)
	Since(ctx context.Context, userID int64, since time.Time) ([]Session, error)
}

type sessionRepo struct {
	db *sqlx.DB
}

func (r *sessionRepo) Create(ctx context.Context, s *Session) error {
	q := r.db.Rebind(`INSERT INTO sessions
		(id, user_id, statement_id, status, current_trick_index, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.UserID, s.StatementID, s.Status, s.CurrentTrickIndex, s.StartedAt.UTC(), s.CompletedAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *sessionRepo) ByID(ctx context.Context, id string) (*Session, error) {
	var s Session
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`SELECT * FROM sessions WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &s, nil
}

// ActiveForUser returns the user's single active session, or ErrNotFound.
// If historical bugs ever left more than one active row, the newest wins.
func (r *sessionRepo) ActiveForUser(ctx context.Context, userID int64) (*Session, error) {
	var s Session
	q := r.db.Rebind(`SELECT * FROM sessions
		WHERE user_id = ? AND status = ?
		ORDER BY started_at DESC LIMIT 1`)
	err := r.db.GetContext(ctx, &s, q, userID, StatusActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return &s, nil
}

// SetCursor advances the session cursor. The update is monotone in SQL,
// so a write from a stale session snapshot cannot rewind it.
func (r *sessionRepo) SetCursor(ctx context.Context, id string, cursor int) error {
	q := r.db.Rebind(`UPDATE sessions
		SET current_trick_index = CASE
			WHEN current_trick_index > ? THEN current_trick_index
			ELSE ? END
		WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, q, cursor, cursor, id)
	if err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}
	return mustAffect(res, id)
}

// Finish moves a session to a terminal status. Guarded on status = active
// so a terminal session can never transition again.
func (r *sessionRepo) Finish(ctx context.Context, id string, status SessionStatus, at time.Time) error {
	if !status.Terminal() {
		return fmt.Errorf("finish session: %q is not terminal", status)
	}
	q := r.db.Rebind(`UPDATE sessions SET status = ?, completed_at = ?
		WHERE id = ? AND status = ?`)
	res, err := r.db.ExecContext(ctx, q, status, at.UTC(), id, StatusActive)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return mustAffect(res, id)
}

func (r *sessionRepo) History(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error) {
	var out []HistoryEntry
	q := r.db.Rebind(`SELECT
			s.id, s.status, s.started_at, s.completed_at,
			st.statement, st.difficulty,
			COUNT(r.id) AS response_count,
			COALESCE(SUM(CASE WHEN r.is_correct THEN 1 ELSE 0 END), 0) AS correct_count,
			COALESCE(AVG(r.score), 0) * 100 AS average_score
		FROM sessions s
		JOIN statements st ON st.id = s.statement_id
		LEFT JOIN responses r ON r.session_id = s.id
		WHERE s.user_id = ?
		GROUP BY s.id, s.status, s.started_at, s.completed_at, st.statement, st.difficulty
		ORDER BY s.started_at DESC
		LIMIT ?`)
	if err := r.db.SelectContext(ctx, &out, q, userID, limit); err != nil {
		return nil, fmt.Errorf("session history: %w", err)
	}
	return out, nil
}

func (r *sessionRepo) StaleActive(ctx context.Context, before time.Time) ([]Session, error) {
	var out []Session
	q := r.db.Rebind(`SELECT * FROM sessions
		WHERE status = ? AND started_at < ?
		ORDER BY started_at`)
	if err := r.db.SelectContext(ctx, &out, q, StatusActive, before.UTC()); err != nil {
		return nil, fmt.Errorf("stale sessions: %w", err)
	}
	return out, nil
}

// Since returns the user's sessions started at or after the given time,
// oldest first. Aggregation happens in Go to keep the SQL portable.
func (r *sessionRepo) Since(ctx context.Context, userID int64, since time.Time) ([]Session, error) {
	var out []Session
	q := r.db.Rebind(`SELECT * FROM sessions
		WHERE user_id = ? AND started_at >= ?
		ORDER BY started_at`)
	if err := r.db.SelectContext(ctx, &out, q, userID, since.UTC()); err != nil {
		return nil, fmt.Errorf("sessions since: %w", err)
	}
	return out, nil
}

func mustAffect(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}
