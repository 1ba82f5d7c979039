// Package catalog serves the trick curriculum and the practice statement
// bank. Both are small and read-heavy, so rows are cached in memory after
// the first load and refreshed only on Invalidate.
package catalog

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/example/reframebot/internal/store"
)

// Catalog is the cached view over the trick table.
type Catalog struct {
	repo store.TrickRepo

	mu   sync.RWMutex
	byID map[int]store.Trick
	ids  []int
}

// New returns a Catalog backed by repo. Nothing is loaded until first use.
func New(repo store.TrickRepo) *Catalog {
	return &Catalog{repo: repo}
}

func (c *Catalog) load(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.byID != nil
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	tricks, err := c.repo.All(ctx)
	if err != nil {
		return fmt.Errorf("load tricks: %w", err)
	}
	byID := make(map[int]store.Trick, len(tricks))
	ids := make([]int, 0, len(tricks))
	for _, t := range tricks {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	c.mu.Lock()
	c.byID = byID
	c.ids = ids
	c.mu.Unlock()
	return nil
}

// Invalidate drops the cache; the next call reloads from the database.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.byID = nil
	c.ids = nil
	c.mu.Unlock()
}

// ByID returns the trick with the given ID or store.ErrNotFound.
func (c *Catalog) ByID(ctx context.Context, id int) (*store.Trick, error) {
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	t, ok := c.byID[id]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("trick %d: %w", id, store.ErrNotFound)
	}
	return &t, nil
}

// All returns every trick ordered by ID.
func (c *Catalog) All(ctx context.Context) ([]store.Trick, error) {
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]store.Trick, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out, nil
}

// Count returns the number of tricks in the catalog.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	if err := c.load(ctx); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids), nil
}

// TrickSummary is a display row for maintainer tooling.
type TrickSummary struct {
	ID           int
	Name         string
	Definition   string
	KeywordCount int
	ExampleCount int
}

// Summary returns one row per trick with definitions trimmed for display.
func (c *Catalog) Summary(ctx context.Context) ([]TrickSummary, error) {
	tricks, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]TrickSummary, 0, len(tricks))
	for _, t := range tricks {
		def := t.Definition
		if len(def) > 100 {
			def = def[:100] + "..."
		}
		examples := 0
		for _, v := range t.Examples {
			examples += len(v)
		}
		out = append(out, TrickSummary{
			ID:           t.ID,
			Name:         t.Name,
			Definition:   def,
			KeywordCount: len(t.Keywords),
			ExampleCount: examples,
		})
	}
	return out, nil
}

// FormattedKeywords renders a trick's keywords for prompt text.
func (c *Catalog) FormattedKeywords(ctx context.Context, trickID int) (string, error) {
	t, err := c.ByID(ctx, trickID)
	if err != nil {
		return "", err
	}
	return strings.Join(t.Keywords, ", "), nil
}

// RandomExamples picks up to n distinct examples for a trick, preferring
// the "everyday" context and falling back to any context the trick has.
func (c *Catalog) RandomExamples(ctx context.Context, trickID, n int, rng *rand.Rand) ([]string, error) {
	t, err := c.ByID(ctx, trickID)
	if err != nil {
		return nil, err
	}
	pool := t.Examples["everyday"]
	if len(pool) == 0 {
		for _, v := range t.Examples {
			pool = append(pool, v...)
		}
	}
	if len(pool) == 0 || n <= 0 {
		return nil, nil
	}
	if n > len(pool) {
		n = len(pool)
	}
	picked := make([]string, len(pool))
	copy(picked, pool)
	rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked[:n], nil
}
