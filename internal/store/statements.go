package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// StatementRepo persists the practice statement bank.
type StatementRepo interface {
	UpsertAll(ctx context.Context, statements []Statement) error
	All(ctx context.Context) ([]Statement, error)
	ByID(ctx context.Context, id int) (*Statement, error)
	ByDifficulty(ctx context.Context, d Difficulty) ([]Statement, error)
}

type statementRepo struct {
	db *sqlx.DB
}

func (r *statementRepo) UpsertAll(ctx context.Context, statements []Statement) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	q := r.db.Rebind(`INSERT INTO statements (id, statement, category, difficulty)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			statement = excluded.statement,
			category = excluded.category,
			difficulty = excluded.difficulty`)
	for _, s := range statements {
		if _, err := tx.ExecContext(ctx, q, s.ID, s.Statement, s.Category, s.Difficulty); err != nil {
			return fmt.Errorf("upsert statement %d: %w", s.ID, err)
		}
	}
	return tx.Commit()
}

func (r *statementRepo) All(ctx context.Context) ([]Statement, error) {
	var out []Statement
	if err := r.db.SelectContext(ctx, &out, `SELECT * FROM statements ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	return out, nil
}

func (r *statementRepo) ByID(ctx context.Context, id int) (*Statement, error) {
	var s Statement
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`SELECT * FROM statements WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get statement %d: %w", id, err)
	}
	return &s, nil
}

func (r *statementRepo) ByDifficulty(ctx context.Context, d Difficulty) ([]Statement, error) {
	var out []Statement
	q := r.db.Rebind(`SELECT * FROM statements WHERE difficulty = ? ORDER BY id`)
	if err := r.db.SelectContext(ctx, &out, q, d); err != nil {
		return nil, fmt.Errorf("list statements by difficulty: %w", err)
	}
	return out, nil
}
