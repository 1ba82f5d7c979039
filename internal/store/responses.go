package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ResponseRepo persists scored attempts. Append-only: rows are never
// updated or deleted.
type ResponseRepo interface {
	Insert(ctx context.Context, resp *Response) error
	CountForTrick(ctx context.Context, sessionID string, trickID int) (int, error)
	SessionStats(ctx context.Context, sessionID string) (*SessionStats, error)
	BySession(ctx context.Context, sessionID string) ([]Response, error)
	PracticeTimes(ctx context.Context, userID int64) ([]time.Time, error)
	Since(ctx context.Context, userID int64, since time.Time) ([]Response, error)
}

type responseRepo struct {
	db *sqlx.DB
}

func (r *responseRepo) Insert(ctx context.Context, resp *Response) error {
	q := r.db.Rebind(`INSERT INTO responses
		(session_id, user_id, trick_id, statement_id, response, score, is_correct, feedback, analysis, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, q,
		resp.SessionID, resp.UserID, resp.TrickID, resp.StatementID,
		resp.Response, resp.Score, resp.IsCorrect, resp.Feedback, resp.Analysis,
		resp.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func (r *responseRepo) CountForTrick(ctx context.Context, sessionID string, trickID int) (int, error) {
	var n int
	q := r.db.Rebind(`SELECT COUNT(*) FROM responses WHERE session_id = ? AND trick_id = ?`)
	if err := r.db.GetContext(ctx, &n, q, sessionID, trickID); err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

func (r *responseRepo) SessionStats(ctx context.Context, sessionID string) (*SessionStats, error) {
	var st SessionStats
	q := r.db.Rebind(`SELECT
			COUNT(DISTINCT trick_id) AS tricks_practiced,
			COUNT(*) AS total_attempts,
			COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct_attempts,
			COALESCE(AVG(score), 0) * 100 AS average_score
		FROM responses WHERE session_id = ?`)
	if err := r.db.GetContext(ctx, &st, q, sessionID); err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}
	return &st, nil
}

func (r *responseRepo) BySession(ctx context.Context, sessionID string) ([]Response, error) {
	var out []Response
	q := r.db.Rebind(`SELECT * FROM responses WHERE session_id = ? ORDER BY created_at, id`)
	if err := r.db.SelectContext(ctx, &out, q, sessionID); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return out, nil
}

// Since returns the user's responses created at or after the given time,
// oldest first.
func (r *responseRepo) Since(ctx context.Context, userID int64, since time.Time) ([]Response, error) {
	var out []Response
	q := r.db.Rebind(`SELECT * FROM responses
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at, id`)
	if err := r.db.SelectContext(ctx, &out, q, userID, since.UTC()); err != nil {
		return nil, fmt.Errorf("responses since: %w", err)
	}
	return out, nil
}

// PracticeTimes returns every attempt timestamp for the user, newest
// first. Day bucketing for streaks happens in Go so the query stays
// portable across dialects.
func (r *responseRepo) PracticeTimes(ctx context.Context, userID int64) ([]time.Time, error) {
	var out []time.Time
	q := r.db.Rebind(`SELECT created_at FROM responses WHERE user_id = ? ORDER BY created_at DESC`)
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, fmt.Errorf("practice times: %w", err)
	}
	return out, nil
}
