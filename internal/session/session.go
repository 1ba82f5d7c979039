// Package session orchestrates learning sessions: one statement per
// session, worked through the full trick curriculum in order.
package session

import (
	"time"

	"github.com/example/reframebot/internal/store"
)

// Challenge is one unit of work presented to the learner: reframe the
// session statement using the target trick.
type Challenge struct {
	StatementID         int
	StatementText       string
	StatementCategory   string
	StatementDifficulty store.Difficulty

	TargetTrickID         int
	TargetTrickName       string
	TargetTrickDefinition string

	// Examples are up to two sample applications of the target trick.
	Examples []string

	// AttemptNumber is 1 for the first try at this trick in this
	// session, counting up on retries.
	AttemptNumber int
}

// Summary wraps up a completed session.
type Summary struct {
	SessionID       string
	UserID          int64
	Duration        time.Duration
	TricksPracticed int
	TotalAttempts   int
	CorrectAttempts int

	// AverageScore is on the 0-100 scale.
	AverageScore float64

	// MasteredTricks names the tricks scored at or above the session
	// mastery bar.
	MasteredTricks []string

	Recommendations []string
}

// SuccessRate is the session's correct-attempt percentage.
func (s *Summary) SuccessRate() float64 {
	if s.TotalAttempts == 0 {
		return 0
	}
	return float64(s.CorrectAttempts) / float64(s.TotalAttempts) * 100
}
