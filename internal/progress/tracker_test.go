package progress

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/reframebot/internal/catalog"
	"github.com/example/reframebot/internal/store"
)

func newTestTracker(t *testing.T) (*Tracker, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := catalog.Seed(context.Background(), s.Tricks(), s.Statements()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	cat := catalog.New(s.Tricks())
	return NewTracker(s.Progress(), s.Responses(), s.Sessions(), cat, zap.NewNop()), s
}

func TestUpdateFirstAttemptSetsMasteryToScore(t *testing.T) {
	tr, _ := newTestTracker(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	p, err := tr.Update(context.Background(), 1, 1, 50, true, now)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.MasteryLevel != 50 {
		t.Errorf("first attempt mastery = %d, want 50", p.MasteryLevel)
	}
	if p.TotalAttempts != 1 || p.CorrectAttempts != 1 {
		t.Errorf("attempts = %d/%d", p.CorrectAttempts, p.TotalAttempts)
	}
	if p.LastPracticed == nil || !p.LastPracticed.Equal(now) {
		t.Errorf("LastPracticed = %v", p.LastPracticed)
	}
}

func TestUpdateBlendsMastery(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		first  float64
		second float64
		want   int
	}{
		{"50 then 100", 50, 100, 65},
		{"0 then 0", 0, 0, 0},
		{"100 then 0", 100, 0, 70},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trickID := i + 1
			if _, err := tr.Update(ctx, 7, trickID, tc.first, true, now); err != nil {
				t.Fatalf("first Update: %v", err)
			}
			p, err := tr.Update(ctx, 7, trickID, tc.second, false, now.Add(time.Hour))
			if err != nil {
				t.Fatalf("second Update: %v", err)
			}
			if p.MasteryLevel != tc.want {
				t.Errorf("mastery = %d, want %d", p.MasteryLevel, tc.want)
			}
			if p.TotalAttempts != 2 || p.CorrectAttempts != 1 {
				t.Errorf("attempts = %d/%d", p.CorrectAttempts, p.TotalAttempts)
			}
		})
	}
}

func TestMasteryLevelUnpracticed(t *testing.T) {
	tr, _ := newTestTracker(t)
	lvl, err := tr.MasteryLevel(context.Background(), 1, 5)
	if err != nil || lvl != 0 {
		t.Errorf("MasteryLevel = %d, %v, want 0", lvl, err)
	}
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 15, 0, 0, 0, time.UTC)
}

func TestStreak(t *testing.T) {
	today := day(10)

	cases := []struct {
		name  string
		times []time.Time
		want  int
	}{
		{"empty", nil, 0},
		{"today only", []time.Time{day(10)}, 1},
		{"three consecutive", []time.Time{day(10), day(9), day(8)}, 3},
		{"yesterday pending today", []time.Time{day(9), day(8)}, 2},
		{"gap breaks streak", []time.Time{day(10), day(8)}, 1},
		{"stale", []time.Time{day(5), day(4)}, 0},
		{"duplicate days collapse", []time.Time{day(10), day(10).Add(time.Hour), day(9)}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Streak(tc.times, today); got != tc.want {
				t.Errorf("Streak = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestOverallAggregates(t *testing.T) {
	tr, s := newTestTracker(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if _, err := tr.Update(ctx, 1, 1, 90, true, now); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := tr.Update(ctx, 1, 2, 40, false, now); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Streak data comes from responses, so insert one practice record.
	sess := &store.Session{ID: "s1", UserID: 1, StatementID: 1, Status: store.StatusActive, StartedAt: now}
	if err := s.Sessions().Create(ctx, sess); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := s.Responses().Insert(ctx, &store.Response{
		SessionID: "s1", UserID: 1, TrickID: 1, StatementID: 1,
		Response: "r", Score: 0.9, IsCorrect: true, CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	o, err := tr.Overall(ctx, 1, now)
	if err != nil {
		t.Fatalf("Overall: %v", err)
	}
	if o.TotalTricks != catalog.TrickCount {
		t.Errorf("TotalTricks = %d", o.TotalTricks)
	}
	if o.PracticedTricks != 2 || o.MasteredTricks != 1 {
		t.Errorf("practiced/mastered = %d/%d", o.PracticedTricks, o.MasteredTricks)
	}
	if o.AverageMastery != 65 {
		t.Errorf("AverageMastery = %.1f, want 65", o.AverageMastery)
	}
	if o.LearningStreak != 1 {
		t.Errorf("LearningStreak = %d, want 1", o.LearningStreak)
	}
	if o.SuccessRate() != 50 {
		t.Errorf("SuccessRate = %.1f, want 50", o.SuccessRate())
	}
	wantCompletion := 1.0 / catalog.TrickCount * 100
	if diff := o.CompletionPercent() - wantCompletion; diff > 0.01 || diff < -0.01 {
		t.Errorf("CompletionPercent = %.2f, want %.2f", o.CompletionPercent(), wantCompletion)
	}
}

func TestRecommendationsOrderingAndCap(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	old := now.Add(-8 * 24 * time.Hour)

	// trick 1: weak (priority 1)
	if _, err := tr.Update(ctx, 5, 1, 30, false, now); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// trick 2: mid mastery, stale (priority 3)
	if _, err := tr.Update(ctx, 5, 2, 60, true, old); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// trick 3: mid mastery, fresh (no recommendation)
	if _, err := tr.Update(ctx, 5, 3, 60, true, now); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// trick 4: mastered (no recommendation)
	if _, err := tr.Update(ctx, 5, 4, 95, true, now); err != nil {
		t.Fatalf("Update: %v", err)
	}

	recs, err := tr.Recommendations(ctx, 5, now)
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("len = %d, want capped at 5", len(recs))
	}
	if recs[0].TrickID != 1 || recs[0].Priority != PriorityPractice {
		t.Errorf("first rec = %+v, want weak trick 1", recs[0])
	}
	// Remaining slots fill with unseen tricks in ID order.
	for i, rec := range recs[1:] {
		if rec.Type != "new_trick" {
			t.Errorf("rec %d type = %s", i+1, rec.Type)
		}
		if rec.TrickID != i+5 {
			t.Errorf("rec %d trick = %d, want %d", i+1, rec.TrickID, i+5)
		}
	}
}

func TestAchievements(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for trick := 1; trick <= 5; trick++ {
		if _, err := tr.Update(ctx, 9, trick, 95, true, now); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	achs, err := tr.Achievements(ctx, 9, now)
	if err != nil {
		t.Fatalf("Achievements: %v", err)
	}
	byID := make(map[string]Achievement, len(achs))
	for _, a := range achs {
		byID[a.ID] = a
	}

	if !byID["first_steps"].Completed {
		t.Error("first_steps not completed")
	}
	if !byID["trick_master"].Completed {
		t.Error("trick_master not completed with 5 mastered")
	}
	if !byID["perfectionist"].Completed {
		t.Error("perfectionist not completed at 100% success")
	}
	if byID["language_guru"].Completed {
		t.Error("language_guru completed with only 5 mastered")
	}
	if g := byID["language_guru"]; g.Progress != 5 || g.Target != catalog.TrickCount {
		t.Errorf("language_guru progress = %.0f/%.0f", g.Progress, g.Target)
	}
}

func TestStatisticsWindow(t *testing.T) {
	tr, s := newTestTracker(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	recent := now.Add(-24 * time.Hour)
	ancient := now.Add(-40 * 24 * time.Hour)
	done := recent.Add(10 * time.Minute)

	for _, row := range []struct {
		id       string
		start    time.Time
		complete *time.Time
	}{
		{"new", recent, &done},
		{"old", ancient, nil},
	} {
		sess := &store.Session{ID: row.id, UserID: 3, StatementID: 1, Status: store.StatusActive, StartedAt: row.start}
		if err := s.Sessions().Create(ctx, sess); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if row.complete != nil {
			if err := s.Sessions().Finish(ctx, row.id, store.StatusCompleted, *row.complete); err != nil {
				t.Fatalf("Finish: %v", err)
			}
		}
	}

	for _, r := range []struct {
		trick   int
		score   float64
		correct bool
		at      time.Time
	}{
		{1, 0.8, true, recent},
		{1, 0.6, true, recent.Add(time.Minute)},
		{2, 0.2, false, recent.Add(2 * time.Minute)},
		{3, 0.9, true, ancient}, // outside the window
	} {
		err := s.Responses().Insert(ctx, &store.Response{
			SessionID: "new", UserID: 3, TrickID: r.trick, StatementID: 1,
			Response: "x", Score: r.score, IsCorrect: r.correct, CreatedAt: r.at,
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	st, err := tr.Statistics(ctx, 3, 30, now)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if st.TotalSessions != 1 || st.CompletedSessions != 1 {
		t.Errorf("sessions = %d/%d", st.CompletedSessions, st.TotalSessions)
	}
	if st.ActiveDays != 1 {
		t.Errorf("ActiveDays = %d", st.ActiveDays)
	}
	if st.AvgSessionMinutes != 10 {
		t.Errorf("AvgSessionMinutes = %.1f, want 10", st.AvgSessionMinutes)
	}
	if st.TotalResponses != 3 || st.CorrectResponses != 2 {
		t.Errorf("responses = %d/%d", st.CorrectResponses, st.TotalResponses)
	}
	if len(st.Tricks) != 2 {
		t.Fatalf("trick stats = %d, want 2", len(st.Tricks))
	}
	if st.Tricks[0].TrickID != 1 || st.Tricks[0].Attempts != 2 {
		t.Errorf("top trick = %+v", st.Tricks[0])
	}
	if st.Tricks[0].TrickName != "Intent" {
		t.Errorf("TrickName = %q", st.Tricks[0].TrickName)
	}
}
