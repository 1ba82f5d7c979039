package catalog

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/example/reframebot/internal/store"
)

func openSeeded(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := Seed(context.Background(), s.Tricks(), s.Statements()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return s
}

func TestSeedDataShape(t *testing.T) {
	tricks := SeedTricks()
	if len(tricks) != TrickCount {
		t.Fatalf("len(SeedTricks) = %d, want %d", len(tricks), TrickCount)
	}
	for i, tr := range tricks {
		if tr.ID != i+1 {
			t.Errorf("trick %d has ID %d", i, tr.ID)
		}
		if tr.Name == "" || tr.Definition == "" {
			t.Errorf("trick %d missing name or definition", tr.ID)
		}
		if len(tr.Keywords) < 3 {
			t.Errorf("trick %d has only %d keywords", tr.ID, len(tr.Keywords))
		}
	}
	for _, st := range SeedStatements() {
		switch st.Difficulty {
		case store.DifficultyEasy, store.DifficultyMedium, store.DifficultyHard:
		default:
			t.Errorf("statement %d has difficulty %q", st.ID, st.Difficulty)
		}
	}
}

func TestCatalogLookup(t *testing.T) {
	s := openSeeded(t)
	c := New(s.Tricks())
	ctx := context.Background()

	tr, err := c.ByID(ctx, 1)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if tr.Name != "Intent" {
		t.Errorf("trick 1 = %q, want Intent", tr.Name)
	}

	if _, err := c.ByID(ctx, 0); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ByID(0) err = %v, want ErrNotFound", err)
	}
	if _, err := c.ByID(ctx, TrickCount+1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ByID(15) err = %v, want ErrNotFound", err)
	}

	all, err := c.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != TrickCount {
		t.Errorf("len(All) = %d, want %d", len(all), TrickCount)
	}
	for i, tr := range all {
		if tr.ID != i+1 {
			t.Errorf("All not ordered: position %d has ID %d", i, tr.ID)
		}
	}
}

func TestCatalogInvalidate(t *testing.T) {
	s := openSeeded(t)
	c := New(s.Tricks())
	ctx := context.Background()

	if _, err := c.ByID(ctx, 1); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	renamed := SeedTricks()
	renamed[0].Name = "Positive Intent"
	if err := s.Tricks().UpsertAll(ctx, renamed); err != nil {
		t.Fatalf("UpsertAll: %v", err)
	}

	tr, _ := c.ByID(ctx, 1)
	if tr.Name != "Intent" {
		t.Errorf("cache served %q before invalidation", tr.Name)
	}

	c.Invalidate()
	tr, err := c.ByID(ctx, 1)
	if err != nil {
		t.Fatalf("ByID after invalidate: %v", err)
	}
	if tr.Name != "Positive Intent" {
		t.Errorf("trick 1 = %q after invalidate, want Positive Intent", tr.Name)
	}
}

func TestRandomExamples(t *testing.T) {
	s := openSeeded(t)
	c := New(s.Tricks())
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	got, err := c.RandomExamples(ctx, 1, 2, rng)
	if err != nil {
		t.Fatalf("RandomExamples: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0] == got[1] {
		t.Error("picked the same example twice")
	}

	// More requested than available caps at the pool size.
	got, err = c.RandomExamples(ctx, 3, 10, rng)
	if err != nil {
		t.Fatalf("RandomExamples: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want pool size 2", len(got))
	}
}

func TestBankRandom(t *testing.T) {
	s := openSeeded(t)
	b := NewBank(s.Statements())
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 10; i++ {
		st, err := b.Random(ctx, store.DifficultyHard, rng)
		if err != nil {
			t.Fatalf("Random: %v", err)
		}
		if st.Difficulty != store.DifficultyHard {
			t.Errorf("difficulty = %s, want hard", st.Difficulty)
		}
	}
}

func TestBankRandomEmptyFilteredPool(t *testing.T) {
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()
	err = s.Statements().UpsertAll(ctx, []store.Statement{{
		ID:         1,
		Statement:  "I always fail at this",
		Category:   "self-doubt",
		Difficulty: store.DifficultyEasy,
	}})
	if err != nil {
		t.Fatalf("UpsertAll: %v", err)
	}

	b := NewBank(s.Statements())
	rng := rand.New(rand.NewSource(7))
	if _, err := b.Random(ctx, store.DifficultyHard, rng); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSummary(t *testing.T) {
	s := openSeeded(t)
	c := New(s.Tricks())
	ctx := context.Background()

	rows, err := c.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(rows) != TrickCount {
		t.Fatalf("len = %d, want %d", len(rows), TrickCount)
	}
	for _, r := range rows {
		if r.Name == "" || r.KeywordCount == 0 || r.ExampleCount == 0 {
			t.Errorf("trick %d: incomplete summary row %+v", r.ID, r)
		}
		if len(r.Definition) > 103 {
			t.Errorf("trick %d: definition not trimmed (%d chars)", r.ID, len(r.Definition))
		}
	}
}

func TestFormattedKeywords(t *testing.T) {
	s := openSeeded(t)
	c := New(s.Tricks())
	ctx := context.Background()

	got, err := c.FormattedKeywords(ctx, 1)
	if err != nil {
		t.Fatalf("FormattedKeywords: %v", err)
	}
	if !strings.Contains(got, ", ") {
		t.Errorf("keywords not comma joined: %q", got)
	}
	if _, err := c.FormattedKeywords(ctx, 99); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
