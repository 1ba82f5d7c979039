package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TrickRepo persists the trick catalog.
type TrickRepo interface {
	UpsertAll(ctx context.Context, tricks []Trick) error
	All(ctx context.Context) ([]Trick, error)
	ByID(ctx context.Context, id int) (*Trick, error)
	Count(ctx context.Context) (int, error)
}

type trickRepo struct {
	db *sqlx.DB
}

func (r *trickRepo) UpsertAll(ctx context.Context, tricks []Trick) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	q := r.db.Rebind(`INSERT INTO tricks (id, name, definition, keywords, examples)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			definition = excluded.definition,
			keywords = excluded.keywords,
			examples = excluded.examples`)
	for _, t := range tricks {
		if _, err := tx.ExecContext(ctx, q, t.ID, t.Name, t.Definition, t.Keywords, t.Examples); err != nil {
			return fmt.Errorf("upsert trick %d: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

func (r *trickRepo) All(ctx context.Context) ([]Trick, error) {
	var out []Trick
	err := r.db.SelectContext(ctx, &out, `SELECT * FROM tricks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tricks: %w", err)
	}
	return out, nil
}

func (r *trickRepo) ByID(ctx context.Context, id int) (*Trick, error) {
	var t Trick
	err := r.db.GetContext(ctx, &t, r.db.Rebind(`SELECT * FROM tricks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get trick %d: %w", id, err)
	}
	return &t, nil
}

func (r *trickRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM tricks`); err != nil {
		return 0, fmt.Errorf("count tricks: %w", err)
	}
	return n, nil
}
