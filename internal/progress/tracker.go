// Package progress maintains per-trick mastery, learning streaks,
// recommendations and achievements.
package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/example/reframebot/internal/catalog"
	"github.com/example/reframebot/internal/store"
)

// Mastery update weights: the running level keeps 70% of its value and
// takes 30% from each new score.
const (
	historyWeight = 0.7
	scoreWeight   = 0.3
)

// Tracker is the progress service.
type Tracker struct {
	progress  store.ProgressRepo
	responses store.ResponseRepo
	sessions  store.SessionRepo
	cat       *catalog.Catalog
	log       *zap.Logger
}

func NewTracker(progress store.ProgressRepo, responses store.ResponseRepo, sessions store.SessionRepo, cat *catalog.Catalog, log *zap.Logger) *Tracker {
	return &Tracker{progress: progress, responses: responses, sessions: sessions, cat: cat, log: log}
}

// Update folds a new score (0-100 scale) into the user's mastery of a
// trick. The first attempt sets mastery to the score directly; later
// attempts move it by the exponential weighting.
func (t *Tracker) Update(ctx context.Context, userID int64, trickID int, score float64, correct bool, now time.Time) (*store.Progress, error) {
	now = now.UTC()

	p, err := t.progress.Get(ctx, userID, trickID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		p = &store.Progress{
			UserID:       userID,
			TrickID:      trickID,
			MasteryLevel: clampMastery(math.Round(score)),
			CreatedAt:    now,
		}
	case err != nil:
		return nil, err
	default:
		blended := historyWeight*float64(p.MasteryLevel) + scoreWeight*score
		p.MasteryLevel = clampMastery(math.Round(blended))
	}

	p.TotalAttempts++
	if correct {
		p.CorrectAttempts++
	}
	p.LastPracticed = &now
	p.UpdatedAt = now

	if err := t.progress.Upsert(ctx, p); err != nil {
		return nil, err
	}

	t.log.Debug("progress updated",
		zap.Int64("user_id", userID),
		zap.Int("trick_id", trickID),
		zap.Float64("score", score),
		zap.Int("mastery", p.MasteryLevel))
	return p, nil
}

// MasteryLevel returns the user's mastery of a trick, 0 when unpracticed.
func (t *Tracker) MasteryLevel(ctx context.Context, userID int64, trickID int) (int, error) {
	p, err := t.progress.Get(ctx, userID, trickID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return p.MasteryLevel, nil
}

// ForUser returns every progress record the user has, ordered by trick.
func (t *Tracker) ForUser(ctx context.Context, userID int64) ([]store.Progress, error) {
	return t.progress.AllForUser(ctx, userID)
}

// Overall is the aggregate progress view for one user.
type Overall struct {
	TotalTricks     int
	PracticedTricks int
	MasteredTricks  int
	AverageMastery  float64
	TotalAttempts   int
	TotalCorrect    int
	LastSession     *time.Time
	LearningStreak  int
}

// CompletionPercent is the share of the curriculum mastered.
func (o *Overall) CompletionPercent() float64 {
	if o.TotalTricks == 0 {
		return 0
	}
	return float64(o.MasteredTricks) / float64(o.TotalTricks) * 100
}

// SuccessRate is the overall correct-attempt percentage.
func (o *Overall) SuccessRate() float64 {
	if o.TotalAttempts == 0 {
		return 0
	}
	return float64(o.TotalCorrect) / float64(o.TotalAttempts) * 100
}

// Overall computes the aggregate view, streak included.
func (t *Tracker) Overall(ctx context.Context, userID int64, now time.Time) (*Overall, error) {
	row, err := t.progress.Overall(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := t.cat.Count(ctx)
	if err != nil {
		return nil, err
	}
	times, err := t.responses.PracticeTimes(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Overall{
		TotalTricks:     total,
		PracticedTricks: row.PracticedTricks,
		MasteredTricks:  row.MasteredTricks,
		AverageMastery:  row.AverageMastery,
		TotalAttempts:   row.TotalAttempts,
		TotalCorrect:    row.TotalCorrect,
		LastSession:     row.LastSession,
		LearningStreak:  Streak(times, now),
	}, nil
}

// Recommendation priorities, lower is more urgent.
const (
	PriorityPractice = 1
	PriorityNew      = 2
	PriorityReview   = 3
)

// reviewAfter is how long a mid-mastery trick can rest before it is
// recommended for review.
const reviewAfter = 7 * 24 * time.Hour

// Recommendation suggests one trick to work on.
type Recommendation struct {
	Type      string
	TrickID   int
	TrickName string
	Reason    string
	Priority  int
}

// Recommendations returns up to five tricks to work on, most urgent
// first: weak tricks, then unseen ones, then stale mid-mastery tricks.
func (t *Tracker) Recommendations(ctx context.Context, userID int64, now time.Time) ([]Recommendation, error) {
	tricks, err := t.cat.All(ctx)
	if err != nil {
		return nil, err
	}
	records, err := t.progress.AllForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byTrick := make(map[int]store.Progress, len(records))
	for _, p := range records {
		byTrick[p.TrickID] = p
	}

	var recs []Recommendation
	for _, trick := range tricks {
		p, practiced := byTrick[trick.ID]
		switch {
		case !practiced:
			recs = append(recs, Recommendation{
				Type: "new_trick", TrickID: trick.ID, TrickName: trick.Name,
				Reason: "A new trick to explore", Priority: PriorityNew,
			})
		case p.MasteryLevel < 50:
			recs = append(recs, Recommendation{
				Type: "practice", TrickID: trick.ID, TrickName: trick.Name,
				Reason:   fmt.Sprintf("Mastery is at %d%%, more practice will help", p.MasteryLevel),
				Priority: PriorityPractice,
			})
		case p.MasteryLevel < store.MasteryThreshold:
			if p.LastPracticed != nil && now.UTC().Sub(p.LastPracticed.UTC()) > reviewAfter {
				recs = append(recs, Recommendation{
					Type: "review", TrickID: trick.ID, TrickName: trick.Name,
					Reason:   "Not practiced for over a week",
					Priority: PriorityReview,
				})
			}
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Priority != recs[j].Priority {
			return recs[i].Priority < recs[j].Priority
		}
		return recs[i].TrickID < recs[j].TrickID
	})
	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs, nil
}

// Achievement is one milestone with completion progress.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Completed   bool
	Progress    float64
	Target      float64
}

// Achievements evaluates every milestone for the user.
func (t *Tracker) Achievements(ctx context.Context, userID int64, now time.Time) ([]Achievement, error) {
	overall, err := t.Overall(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return []Achievement{
		{
			ID: "first_steps", Name: "First Steps",
			Description: "Practice your first trick",
			Completed:   overall.PracticedTricks > 0,
			Progress:    math.Min(1, float64(overall.PracticedTricks)), Target: 1,
		},
		{
			ID: "dedicated_learner", Name: "Dedicated Learner",
			Description: "Practice seven days in a row",
			Completed:   overall.LearningStreak >= 7,
			Progress:    math.Min(7, float64(overall.LearningStreak)), Target: 7,
		},
		{
			ID: "trick_master", Name: "Trick Master",
			Description: "Master five tricks",
			Completed:   overall.MasteredTricks >= 5,
			Progress:    math.Min(5, float64(overall.MasteredTricks)), Target: 5,
		},
		{
			ID: "perfectionist", Name: "Perfectionist",
			Description: "Reach a 90% success rate",
			Completed:   overall.SuccessRate() >= 90,
			Progress:    math.Min(90, overall.SuccessRate()), Target: 90,
		},
		{
			ID: "language_guru", Name: "Language Guru",
			Description: "Master all fourteen tricks",
			Completed:   overall.MasteredTricks >= catalog.TrickCount,
			Progress:    math.Min(catalog.TrickCount, float64(overall.MasteredTricks)), Target: catalog.TrickCount,
		},
	}, nil
}

// TrickStat is per-trick activity within a statistics window.
type TrickStat struct {
	TrickID      int
	TrickName    string
	Attempts     int
	Correct      int
	AverageScore float64
}

// Statistics summarizes activity over the trailing window.
type Statistics struct {
	PeriodDays        int
	ActiveDays        int
	TotalSessions     int
	CompletedSessions int
	AvgSessionMinutes float64
	TotalResponses    int
	CorrectResponses  int
	AverageScore      float64
	Tricks            []TrickStat
}

// Statistics computes the trailing-window summary. days <= 0 means 30.
func (t *Tracker) Statistics(ctx context.Context, userID int64, days int, now time.Time) (*Statistics, error) {
	if days <= 0 {
		days = 30
	}
	since := now.UTC().Add(-time.Duration(days) * 24 * time.Hour)

	sessions, err := t.sessions.Since(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	responses, err := t.responses.Since(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	st := &Statistics{PeriodDays: days, TotalSessions: len(sessions)}

	activeDays := make(map[time.Time]bool)
	var totalMinutes float64
	for _, s := range sessions {
		activeDays[midnight(s.StartedAt)] = true
		if s.CompletedAt != nil {
			st.CompletedSessions++
			totalMinutes += s.Duration(now).Minutes()
		}
	}
	st.ActiveDays = len(activeDays)
	if st.CompletedSessions > 0 {
		st.AvgSessionMinutes = totalMinutes / float64(st.CompletedSessions)
	}

	perTrick := make(map[int]*TrickStat)
	var scoreSum float64
	for _, r := range responses {
		st.TotalResponses++
		if r.IsCorrect {
			st.CorrectResponses++
		}
		scoreSum += r.Score

		ts, ok := perTrick[r.TrickID]
		if !ok {
			ts = &TrickStat{TrickID: r.TrickID}
			if trick, err := t.cat.ByID(ctx, r.TrickID); err == nil {
				ts.TrickName = trick.Name
			}
			perTrick[r.TrickID] = ts
		}
		ts.Attempts++
		if r.IsCorrect {
			ts.Correct++
		}
		ts.AverageScore += r.Score * 100
	}
	if st.TotalResponses > 0 {
		st.AverageScore = scoreSum / float64(st.TotalResponses) * 100
	}

	for _, ts := range perTrick {
		ts.AverageScore /= float64(ts.Attempts)
		st.Tricks = append(st.Tricks, *ts)
	}
	sort.Slice(st.Tricks, func(i, j int) bool {
		if st.Tricks[i].Attempts != st.Tricks[j].Attempts {
			return st.Tricks[i].Attempts > st.Tricks[j].Attempts
		}
		return st.Tricks[i].TrickID < st.Tricks[j].TrickID
	})

	return st, nil
}

func clampMastery(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
