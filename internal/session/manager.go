package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/reframebot/internal/catalog"
	"github.com/example/reframebot/internal/progress"
	"github.com/example/reframebot/internal/scoring"
	"github.com/example/reframebot/internal/store"
)

// sessionMasteryBar is the normalized score at or above which a trick
// counts as mastered within a session.
const sessionMasteryBar = 0.8

// staleAfter is how long an active session may sit untouched before
// cleanup abandons it.
const staleAfter = 7 * 24 * time.Hour

// Manager drives the session lifecycle.
type Manager struct {
	sessions  store.SessionRepo
	responses store.ResponseRepo
	reminders store.ReminderRepo
	cat       *catalog.Catalog
	bank      *catalog.Bank
	oracle    scoring.Analyzer
	feedback  *scoring.FeedbackEngine
	tracker   *progress.Tracker
	log       *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand

	clock func() time.Time
}

// NewManager wires the session service. clock may be nil, defaulting to
// time.Now.
func NewManager(
	sessions store.SessionRepo,
	responses store.ResponseRepo,
	reminders store.ReminderRepo,
	cat *catalog.Catalog,
	bank *catalog.Bank,
	oracle scoring.Analyzer,
	feedback *scoring.FeedbackEngine,
	tracker *progress.Tracker,
	rng *rand.Rand,
	log *zap.Logger,
	clock func() time.Time,
) *Manager {
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		sessions: sessions, responses: responses, reminders: reminders,
		cat: cat, bank: bank, oracle: oracle, feedback: feedback,
		tracker: tracker, rng: rng, log: log, clock: clock,
	}
}

// Start returns the user's active session, creating one if none exists.
// The second return value reports whether an existing session was
// resumed. A new session gets a statement matched to the user's level.
func (m *Manager) Start(ctx context.Context, userID int64) (*store.Session, bool, error) {
	existing, err := m.sessions.ActiveForUser(ctx, userID)
	if err == nil {
		m.log.Info("resuming active session",
			zap.Int64("user_id", userID), zap.String("session_id", existing.ID))
		return existing, true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	now := m.clock().UTC()
	difficulty, err := m.adaptiveDifficulty(ctx, userID, now)
	if err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	statement, err := m.bank.Random(ctx, difficulty, m.rng)
	m.mu.Unlock()
	if err != nil {
		return nil, false, err
	}

	sess := &store.Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		StatementID: statement.ID,
		Status:      store.StatusActive,
		StartedAt:   now,
	}
	if err := m.sessions.Create(ctx, sess); err != nil {
		return nil, false, err
	}

	m.log.Info("started session",
		zap.Int64("user_id", userID),
		zap.String("session_id", sess.ID),
		zap.String("difficulty", string(difficulty)))
	return sess, false, nil
}

// Resume returns the user's active session or store.ErrNotFound.
func (m *Manager) Resume(ctx context.Context, userID int64) (*store.Session, error) {
	return m.sessions.ActiveForUser(ctx, userID)
}

// adaptiveDifficulty picks the statement difficulty from the user's
// average mastery.
func (m *Manager) adaptiveDifficulty(ctx context.Context, userID int64, now time.Time) (store.Difficulty, error) {
	overall, err := m.tracker.Overall(ctx, userID, now)
	if err != nil {
		return "", err
	}
	switch {
	case overall.AverageMastery >= 70:
		return store.DifficultyHard, nil
	case overall.AverageMastery >= 40:
		return store.DifficultyMedium, nil
	default:
		return store.DifficultyEasy, nil
	}
}

// NextChallenge builds the next challenge for the session, or returns
// nil when every trick has been practiced.
func (m *Manager) NextChallenge(ctx context.Context, sess *store.Session) (*Challenge, error) {
	count, err := m.cat.Count(ctx)
	if err != nil {
		return nil, err
	}
	if sess.CurrentTrickIndex >= count {
		return nil, nil
	}

	trickID := sess.CurrentTrickIndex + 1
	trick, err := m.cat.ByID(ctx, trickID)
	if err != nil {
		return nil, err
	}
	statement, err := m.bank.ByID(ctx, sess.StatementID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	examples, err := m.cat.RandomExamples(ctx, trickID, 2, m.rng)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	attempts, err := m.responses.CountForTrick(ctx, sess.ID, trickID)
	if err != nil {
		return nil, err
	}

	return &Challenge{
		StatementID:           statement.ID,
		StatementText:         statement.Statement,
		StatementCategory:     statement.Category,
		StatementDifficulty:   statement.Difficulty,
		TargetTrickID:         trick.ID,
		TargetTrickName:       trick.Name,
		TargetTrickDefinition: trick.Definition,
		Examples:              examples,
		AttemptNumber:         attempts + 1,
	}, nil
}

// ProcessResponse scores an attempt, persists it, folds it into the
// user's progress, advances the session cursor and stamps the practice
// date for reminder tracking.
func (m *Manager) ProcessResponse(ctx context.Context, sess *store.Session, response string, trickID int) (*scoring.Feedback, error) {
	if sess.Status != store.StatusActive {
		return nil, fmt.Errorf("session %s is %s", sess.ID, sess.Status)
	}

	trick, err := m.cat.ByID(ctx, trickID)
	if err != nil {
		return nil, err
	}
	statement, err := m.bank.ByID(ctx, sess.StatementID)
	if err != nil {
		return nil, err
	}

	analysis, err := m.oracle.Analyze(ctx, response, trick, statement.Statement)
	if err != nil {
		return nil, err
	}
	fb, err := m.feedback.Generate(ctx, analysis, trick)
	if err != nil {
		return nil, err
	}

	now := m.clock().UTC()
	rec := &store.Response{
		SessionID:   sess.ID,
		UserID:      sess.UserID,
		TrickID:     trickID,
		StatementID: sess.StatementID,
		Response:    response,
		Score:       analysis.Score / 100,
		IsCorrect:   analysis.IsCorrect,
		Feedback:    analysis.Feedback,
		Analysis: store.Analysis{
			Fallback:      analysis.Fallback,
			DetectedTrick: analysis.DetectedTrick,
			Confidence:    analysis.Confidence,
			Improvements:  analysis.Improvements,
		},
		CreatedAt: now,
	}
	if err := m.responses.Insert(ctx, rec); err != nil {
		return nil, err
	}

	if _, err := m.tracker.Update(ctx, sess.UserID, trickID, analysis.Score, analysis.IsCorrect, now); err != nil {
		return nil, err
	}

	// The cursor only moves forward; retrying an earlier trick never
	// rewinds the session.
	if trickID > sess.CurrentTrickIndex {
		if err := m.sessions.SetCursor(ctx, sess.ID, trickID); err != nil {
			return nil, err
		}
		sess.CurrentTrickIndex = trickID
	}

	if err := m.reminders.RecordPractice(ctx, sess.UserID, now); err != nil {
		// Reminder bookkeeping must not fail the attempt.
		m.log.Warn("record practice failed",
			zap.Int64("user_id", sess.UserID), zap.Error(err))
	}

	m.log.Info("processed response",
		zap.Int64("user_id", sess.UserID),
		zap.String("session_id", sess.ID),
		zap.Int("trick_id", trickID),
		zap.Float64("score", analysis.Score),
		zap.Bool("correct", analysis.IsCorrect))
	return fb, nil
}

// Complete finishes the session and builds its summary.
func (m *Manager) Complete(ctx context.Context, sess *store.Session) (*Summary, error) {
	now := m.clock().UTC()
	if err := m.sessions.Finish(ctx, sess.ID, store.StatusCompleted, now); err != nil {
		return nil, err
	}
	sess.Status = store.StatusCompleted
	sess.CompletedAt = &now

	stats, err := m.responses.SessionStats(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	mastered, err := m.masteredTricks(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	recs, err := m.sessionRecommendations(ctx, sess.UserID, stats, now)
	if err != nil {
		return nil, err
	}

	m.log.Info("completed session",
		zap.Int64("user_id", sess.UserID),
		zap.String("session_id", sess.ID),
		zap.Int("tricks_practiced", stats.TricksPracticed))
	return &Summary{
		SessionID:       sess.ID,
		UserID:          sess.UserID,
		Duration:        sess.Duration(now),
		TricksPracticed: stats.TricksPracticed,
		TotalAttempts:   stats.TotalAttempts,
		CorrectAttempts: stats.CorrectAttempts,
		AverageScore:    stats.AverageScore,
		MasteredTricks:  mastered,
		Recommendations: recs,
	}, nil
}

func (m *Manager) masteredTricks(ctx context.Context, sessionID string) ([]string, error) {
	responses, err := m.responses.BySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ids := make(map[int]bool)
	for _, r := range responses {
		if r.Score >= sessionMasteryBar {
			ids[r.TrickID] = true
		}
	}
	ordered := make([]int, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Ints(ordered)

	names := make([]string, 0, len(ordered))
	for _, id := range ordered {
		trick, err := m.cat.ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		names = append(names, trick.Name)
	}
	return names, nil
}

func (m *Manager) sessionRecommendations(ctx context.Context, userID int64, stats *store.SessionStats, now time.Time) ([]string, error) {
	var recs []string

	switch {
	case stats.AverageScore >= 80:
		recs = append(recs, "Excellent work! You are ready for harder statements.")
	case stats.AverageScore >= 60:
		recs = append(recs, "Good progress! Keep practicing to lock it in.")
	default:
		recs = append(recs, "Review the trick definitions and examples before your next session.")
	}

	if stats.TotalAttempts > 0 {
		successRate := float64(stats.CorrectAttempts) / float64(stats.TotalAttempts) * 100
		if successRate < 50 {
			recs = append(recs, "Focus on the characteristic keywords of each trick.")
		}
	}

	personal, err := m.tracker.Recommendations(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	for i, r := range personal {
		if i == 2 {
			break
		}
		recs = append(recs, fmt.Sprintf("Practice %q: %s", r.TrickName, r.Reason))
	}
	return recs, nil
}

// Abandon marks the session abandoned.
func (m *Manager) Abandon(ctx context.Context, sess *store.Session) error {
	now := m.clock().UTC()
	if err := m.sessions.Finish(ctx, sess.ID, store.StatusAbandoned, now); err != nil {
		return err
	}
	sess.Status = store.StatusAbandoned
	sess.CompletedAt = &now
	m.log.Info("abandoned session",
		zap.Int64("user_id", sess.UserID), zap.String("session_id", sess.ID))
	return nil
}

// History returns the user's most recent sessions, newest first.
func (m *Manager) History(ctx context.Context, userID int64, limit int) ([]store.HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	return m.sessions.History(ctx, userID, limit)
}

// CleanupStale abandons active sessions older than a week and reports
// how many were closed.
func (m *Manager) CleanupStale(ctx context.Context) (int, error) {
	now := m.clock().UTC()
	stale, err := m.sessions.StaleActive(ctx, now.Add(-staleAfter))
	if err != nil {
		return 0, err
	}
	closed := 0
	for i := range stale {
		if err := m.sessions.Finish(ctx, stale[i].ID, store.StatusAbandoned, now); err != nil {
			m.log.Warn("abandoning stale session failed",
				zap.String("session_id", stale[i].ID), zap.Error(err))
			continue
		}
		closed++
	}
	if closed > 0 {
		m.log.Info("cleaned up stale sessions", zap.Int("count", closed))
	}
	return closed, nil
}
