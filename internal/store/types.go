package store

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Difficulty is a statement difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// SessionStatus is the lifecycle state of a learning session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
)

// Terminal reports whether no further transitions are allowed.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// StringList is a JSON-encoded list column.
type StringList []string

func (l *StringList) Scan(src any) error {
	return scanJSON(src, l)
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

// ExampleSet maps a context tag (e.g. "everyday", "business") to example
// phrasings. Stored as a JSON object column.
type ExampleSet map[string][]string

func (e *ExampleSet) Scan(src any) error {
	return scanJSON(src, e)
}

func (e ExampleSet) Value() (driver.Value, error) {
	if e == nil {
		return "{}", nil
	}
	b, err := json.Marshal(e)
	return string(b), err
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into JSON column", src)
	}
}

// Trick is one of the 14 reframing tricks. Immutable after seeding.
type Trick struct {
	ID         int        `db:"id"`
	Name       string     `db:"name"`
	Definition string     `db:"definition"`
	Keywords   StringList `db:"keywords"`
	Examples   ExampleSet `db:"examples"`
}

// Statement is a practice statement a session is built around.
type Statement struct {
	ID         int        `db:"id"`
	Statement  string     `db:"statement"`
	Category   string     `db:"category"`
	Difficulty Difficulty `db:"difficulty"`
}

// Session is one learning session row. Rows are never physically deleted;
// history feeds streak and statistics queries.
type Session struct {
	ID                string        `db:"id"`
	UserID            int64         `db:"user_id"`
	StatementID       int           `db:"statement_id"`
	Status            SessionStatus `db:"status"`
	CurrentTrickIndex int           `db:"current_trick_index"`
	StartedAt         time.Time     `db:"started_at"`
	CompletedAt       *time.Time    `db:"completed_at"`
}

// Duration returns completed_at − started_at for terminal sessions and
// now − started_at for active ones. Both ends are forced to UTC first so
// rows written with mixed offsets never skew the result.
func (s *Session) Duration(now time.Time) time.Duration {
	start := s.StartedAt.UTC()
	if s.CompletedAt != nil {
		return s.CompletedAt.UTC().Sub(start)
	}
	return now.UTC().Sub(start)
}

// Analysis is the structured payload persisted with a response. It is a
// typed record serialized at the storage boundary, never a free-form map.
type Analysis struct {
	Fallback      bool     `json:"fallback,omitempty"`
	DetectedTrick string   `json:"detected_trick,omitempty"`
	Confidence    float64  `json:"confidence"`
	Improvements  []string `json:"improvements,omitempty"`
}

func (a *Analysis) Scan(src any) error {
	return scanJSON(src, a)
}

func (a Analysis) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	return string(b), err
}

// Response is one scored attempt. Append-only.
type Response struct {
	ID          int64     `db:"id"`
	SessionID   string    `db:"session_id"`
	UserID      int64     `db:"user_id"`
	TrickID     int       `db:"trick_id"`
	StatementID int       `db:"statement_id"`
	Response    string    `db:"response"`
	Score       float64   `db:"score"` // normalized 0–1
	IsCorrect   bool      `db:"is_correct"`
	Feedback    string    `db:"feedback"`
	Analysis    Analysis  `db:"analysis"`
	CreatedAt   time.Time `db:"created_at"`
}

// Progress is the per-user, per-trick mastery aggregate.
type Progress struct {
	UserID          int64      `db:"user_id"`
	TrickID         int        `db:"trick_id"`
	MasteryLevel    int        `db:"mastery_level"`
	TotalAttempts   int        `db:"total_attempts"`
	CorrectAttempts int        `db:"correct_attempts"`
	LastPracticed   *time.Time `db:"last_practiced"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// MasteryThreshold is the mastery level at which a trick counts as mastered.
const MasteryThreshold = 80

// Mastered reports whether the trick is mastered.
func (p *Progress) Mastered() bool {
	return p.MasteryLevel >= MasteryThreshold
}

// SuccessRate returns the correct-attempt percentage.
func (p *Progress) SuccessRate() float64 {
	if p.TotalAttempts == 0 {
		return 0
	}
	return float64(p.CorrectAttempts) / float64(p.TotalAttempts) * 100
}

// ReminderTracking is the per-user retention notification state.
type ReminderTracking struct {
	UserID           int64      `db:"user_id"`
	LastPracticeDate *time.Time `db:"last_practice_date"`
	LastReminderDate *time.Time `db:"last_reminder_date"`
	ReminderCount    int        `db:"reminder_count"`
	RemindersEnabled bool       `db:"reminders_enabled"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// SessionStats aggregates the scored attempts of a single session.
type SessionStats struct {
	TricksPracticed int     `db:"tricks_practiced"`
	TotalAttempts   int     `db:"total_attempts"`
	CorrectAttempts int     `db:"correct_attempts"`
	AverageScore    float64 `db:"average_score"` // 0–100
}

// HistoryEntry is one row of a user's session history.
type HistoryEntry struct {
	SessionID     string        `db:"id"`
	Status        SessionStatus `db:"status"`
	StartedAt     time.Time     `db:"started_at"`
	CompletedAt   *time.Time    `db:"completed_at"`
	Statement     string        `db:"statement"`
	Difficulty    Difficulty    `db:"difficulty"`
	ResponseCount int           `db:"response_count"`
	CorrectCount  int           `db:"correct_count"`
	AverageScore  float64       `db:"average_score"`
}

// OverallRow is the aggregate progress projection for one user.
type OverallRow struct {
	PracticedTricks int        `db:"practiced_tricks"`
	MasteredTricks  int        `db:"mastered_tricks"`
	AverageMastery  float64    `db:"average_mastery"`
	TotalAttempts   int        `db:"total_attempts"`
	TotalCorrect    int        `db:"total_correct"`
	LastSession     *time.Time `db:"last_session"`
}

// ReminderStats summarizes reminder tracking across all users.
type ReminderStats struct {
	TrackedUsers  int     `db:"tracked_users"`
	EnabledCount  int     `db:"enabled_count"`
	RemindedUsers int     `db:"reminded_users"`
	AvgPerUser    float64 `db:"avg_per_user"`
}
