package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ReminderRepo persists per-user retention reminder state.
type ReminderRepo interface {
	Get(ctx context.Context, userID int64) (*ReminderTracking, error)
	RecordPractice(ctx context.Context, userID int64, at time.Time) error
	RecordReminder(ctx context.Context, userID int64, at time.Time) error
	SetEnabled(ctx context.Context, userID int64, enabled bool, at time.Time) error
	Due(ctx context.Context, now time.Time, idle time.Duration) ([]ReminderTracking, error)
	Stats(ctx context.Context) (*ReminderStats, error)
}

type reminderRepo struct {
	db *sqlx.DB
}

func (r *reminderRepo) Get(ctx context.Context, userID int64) (*ReminderTracking, error) {
	var t ReminderTracking
	q := r.db.Rebind(`SELECT * FROM reminder_tracking WHERE user_id = ?`)
	err := r.db.GetContext(ctx, &t, q, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reminder tracking: %w", err)
	}
	return &t, nil
}

// RecordPractice creates the tracking row on first contact and stamps
// last_practice_date on every call.
func (r *reminderRepo) RecordPractice(ctx context.Context, userID int64, at time.Time) error {
	at = at.UTC()
	q := r.db.Rebind(`INSERT INTO reminder_tracking
		(user_id, last_practice_date, reminder_count, reminders_enabled, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			last_practice_date = excluded.last_practice_date,
			updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, q, userID, at, true, at, at); err != nil {
		return fmt.Errorf("record practice: %w", err)
	}
	return nil
}

func (r *reminderRepo) RecordReminder(ctx context.Context, userID int64, at time.Time) error {
	at = at.UTC()
	q := r.db.Rebind(`UPDATE reminder_tracking
		SET last_reminder_date = ?, reminder_count = reminder_count + 1, updated_at = ?
		WHERE user_id = ?`)
	res, err := r.db.ExecContext(ctx, q, at, at, userID)
	if err != nil {
		return fmt.Errorf("record reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("reminder tracking for user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// SetEnabled flips the opt-in flag, creating the row if needed so a user
// can opt out before ever practicing.
func (r *reminderRepo) SetEnabled(ctx context.Context, userID int64, enabled bool, at time.Time) error {
	at = at.UTC()
	q := r.db.Rebind(`INSERT INTO reminder_tracking
		(user_id, reminder_count, reminders_enabled, created_at, updated_at)
		VALUES (?, 0, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			reminders_enabled = excluded.reminders_enabled,
			updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, q, userID, enabled, at, at); err != nil {
		return fmt.Errorf("set reminders enabled: %w", err)
	}
	return nil
}

// Due returns users eligible for a reminder at now: reminders enabled,
// no practice within the idle window, and no reminder within the same
// window. Null dates count as idle.
func (r *reminderRepo) Due(ctx context.Context, now time.Time, idle time.Duration) ([]ReminderTracking, error) {
	cutoff := now.UTC().Add(-idle)
	var out []ReminderTracking
	q := r.db.Rebind(`SELECT * FROM reminder_tracking
		WHERE reminders_enabled = ?
		  AND (last_practice_date IS NULL OR last_practice_date <= ?)
		  AND (last_reminder_date IS NULL OR last_reminder_date <= ?)
		ORDER BY user_id`)
	if err := r.db.SelectContext(ctx, &out, q, true, cutoff, cutoff); err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	return out, nil
}

func (r *reminderRepo) Stats(ctx context.Context) (*ReminderStats, error) {
	var st ReminderStats
	q := r.db.Rebind(`SELECT
			COUNT(*) AS tracked_users,
			COALESCE(SUM(CASE WHEN reminders_enabled THEN 1 ELSE 0 END), 0) AS enabled_count,
			COALESCE(SUM(CASE WHEN reminder_count > 0 THEN 1 ELSE 0 END), 0) AS reminded_users,
			COALESCE(AVG(reminder_count), 0) AS avg_per_user
		FROM reminder_tracking`)
	if err := r.db.GetContext(ctx, &st, q); err != nil {
		return nil, fmt.Errorf("reminder stats: %w", err)
	}
	return &st, nil
}
