package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ProgressRepo persists per-user, per-trick mastery aggregates.
type ProgressRepo interface {
	Get(ctx context.Context, userID int64, trickID int) (*Progress, error)
	Upsert(ctx context.Context, p *Progress) error
	AllForUser(ctx context.Context, userID int64) ([]Progress, error)
	Overall(ctx context.Context, userID int64) (*OverallRow, error)
}

type progressRepo struct {
	db *sqlx.DB
}

func (r *progressRepo) Get(ctx context.Context, userID int64, trickID int) (*Progress, error) {
	var p Progress
	q := r.db.Rebind(`SELECT * FROM progress WHERE user_id = ? AND trick_id = ?`)
	err := r.db.GetContext(ctx, &p, q, userID, trickID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return &p, nil
}

func (r *progressRepo) Upsert(ctx context.Context, p *Progress) error {
	q := r.db.Rebind(`INSERT INTO progress
		(user_id, trick_id, mastery_level, total_attempts, correct_attempts, last_practiced, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, trick_id) DO UPDATE SET
			mastery_level = excluded.mastery_level,
			total_attempts = excluded.total_attempts,
			correct_attempts = excluded.correct_attempts,
			last_practiced = excluded.last_practiced,
			updated_at = excluded.updated_at`)
	_, err := r.db.ExecContext(ctx, q,
		p.UserID, p.TrickID, p.MasteryLevel, p.TotalAttempts, p.CorrectAttempts,
		p.LastPracticed, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

func (r *progressRepo) AllForUser(ctx context.Context, userID int64) ([]Progress, error) {
	var out []Progress
	q := r.db.Rebind(`SELECT * FROM progress WHERE user_id = ? ORDER BY trick_id`)
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return out, nil
}

func (r *progressRepo) Overall(ctx context.Context, userID int64) (*OverallRow, error) {
	var row OverallRow
	q := r.db.Rebind(`SELECT
			COUNT(*) AS practiced_tricks,
			COALESCE(SUM(CASE WHEN mastery_level >= ? THEN 1 ELSE 0 END), 0) AS mastered_tricks,
			COALESCE(AVG(mastery_level), 0) AS average_mastery,
			COALESCE(SUM(total_attempts), 0) AS total_attempts,
			COALESCE(SUM(correct_attempts), 0) AS total_correct,
			MAX(last_practiced) AS last_session
		FROM progress WHERE user_id = ?`)
	if err := r.db.GetContext(ctx, &row, q, MasteryThreshold, userID); err != nil {
		return nil, fmt.Errorf("overall progress: %w", err)
	}
	return &row, nil
}
