package catalog

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/example/reframebot/internal/store"
)

// Bank serves practice statements.
type Bank struct {
	repo store.StatementRepo
}

// NewBank returns a Bank backed by repo.
func NewBank(repo store.StatementRepo) *Bank {
	return &Bank{repo: repo}
}

// ByID returns the statement with the given ID or store.ErrNotFound.
func (b *Bank) ByID(ctx context.Context, id int) (*store.Statement, error) {
	return b.repo.ByID(ctx, id)
}

// Random picks a random statement of the given difficulty; an empty
// filtered pool is store.ErrNotFound.
func (b *Bank) Random(ctx context.Context, d store.Difficulty, rng *rand.Rand) (*store.Statement, error) {
	pool, err := b.repo.ByDifficulty(ctx, d)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("no %s statements: %w", d, store.ErrNotFound)
	}
	s := pool[rng.Intn(len(pool))]
	return &s, nil
}
