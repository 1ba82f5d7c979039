// Package reminder nudges inactive learners once their practice lapses.
// A daily job finds eligible users and sends each a rotating message.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/reframebot/internal/delivery"
	"github.com/example/reframebot/internal/store"
)

// Sender delivers one reminder message. *delivery.Telegram satisfies it.
type Sender interface {
	Send(userID int64, text string) error
}

const (
	// DefaultIdle is how long a user may be inactive before a reminder,
	// and also the minimum gap between two reminders to the same user.
	DefaultIdle = 7 * 24 * time.Hour

	// DefaultAt is the daily send time, UTC.
	DefaultAt = "12:00"

	// retryAfter is the pause before retrying a failed daily batch.
	retryAfter = time.Hour
)

// Scheduler runs the daily reminder job.
type Scheduler struct {
	repo   store.ReminderRepo
	sender Sender
	log    *zap.Logger
	sched  *gocron.Scheduler

	idle  time.Duration
	at    string
	clock func() time.Time

	mu       sync.Mutex
	msgIndex int

	stopOnce sync.Once
	stop     chan struct{}
}

// Option tunes the scheduler.
type Option func(*Scheduler)

// WithIdle overrides the inactivity window.
func WithIdle(d time.Duration) Option { return func(s *Scheduler) { s.idle = d } }

// WithDailyAt overrides the daily send time ("HH:MM", UTC).
func WithDailyAt(at string) Option { return func(s *Scheduler) { s.at = at } }

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option { return func(s *Scheduler) { s.clock = clock } }

// New builds the scheduler. Call Start to begin the daily job.
func New(repo store.ReminderRepo, sender Sender, log *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo:   repo,
		sender: sender,
		log:    log,
		sched:  gocron.NewScheduler(time.UTC),
		idle:   DefaultIdle,
		at:     DefaultAt,
		clock:  time.Now,
		stop:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules the daily batch and returns immediately.
func (s *Scheduler) Start() error {
	if _, err := s.sched.Every(1).Day().At(s.at).Do(s.runBatch); err != nil {
		return fmt.Errorf("schedule reminder job: %w", err)
	}
	s.sched.StartAsync()
	s.log.Info("reminder scheduler started",
		zap.String("daily_at", s.at), zap.Duration("idle", s.idle))
	return nil
}

// Stop shuts the scheduler down. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.sched.Stop()
		s.log.Info("reminder scheduler stopped")
	})
}

// runBatch is the gocron entry point. A failed batch retries after an
// hour; the job itself never panics out of the scheduler.
func (s *Scheduler) runBatch() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("reminder batch panicked", zap.Any("panic", r))
			s.scheduleRetry()
		}
	}()

	if _, err := s.SendDue(context.Background()); err != nil {
		s.log.Error("reminder batch failed", zap.Error(err))
		s.scheduleRetry()
	}
}

func (s *Scheduler) scheduleRetry() {
	time.AfterFunc(retryAfter, func() {
		select {
		case <-s.stop:
		default:
			s.runBatch()
		}
	})
}

// SendDue sends a reminder to every eligible user and reports how many
// went out. A failure for one user never blocks the rest.
func (s *Scheduler) SendDue(ctx context.Context) (int, error) {
	now := s.clock().UTC()
	due, err := s.repo.Due(ctx, now, s.idle)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, user := range due {
		delivered, err := s.sendTo(ctx, user.UserID, now)
		if err != nil {
			s.log.Error("reminder delivery failed",
				zap.Int64("user_id", user.UserID), zap.Error(err))
			continue
		}
		if delivered {
			sent++
		}
	}
	if len(due) > 0 {
		s.log.Info("reminder batch done",
			zap.Int("eligible", len(due)), zap.Int("sent", sent))
	}
	return sent, nil
}

func (s *Scheduler) sendTo(ctx context.Context, userID int64, now time.Time) (bool, error) {
	if err := s.sender.Send(userID, s.nextMessage()); err != nil {
		if errors.Is(err, delivery.ErrRecipientGone) {
			// The user can never be reached again; opt them out so
			// the batch stops retrying forever.
			if derr := s.repo.SetEnabled(ctx, userID, false, now); derr != nil {
				return false, fmt.Errorf("disable after %v: %w", err, derr)
			}
			s.log.Warn("recipient gone, reminders disabled", zap.Int64("user_id", userID))
			return false, nil
		}
		return false, err
	}
	return true, s.repo.RecordReminder(ctx, userID, now)
}

// nextMessage rotates deterministically through the message pool.
func (s *Scheduler) nextMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := reminderMessages[s.msgIndex%len(reminderMessages)]
	s.msgIndex++
	return msg
}

// RecordPractice stamps the user's practice date, deferring their next
// reminder by the idle window.
func (s *Scheduler) RecordPractice(ctx context.Context, userID int64) error {
	return s.repo.RecordPractice(ctx, userID, s.clock().UTC())
}

// Toggle opts a user in or out of reminders.
func (s *Scheduler) Toggle(ctx context.Context, userID int64, enabled bool) error {
	return s.repo.SetEnabled(ctx, userID, enabled, s.clock().UTC())
}

// ForceSend sends a reminder immediately, ignoring eligibility. Returns
// false when the user has become unreachable.
func (s *Scheduler) ForceSend(ctx context.Context, userID int64) (bool, error) {
	now := s.clock().UTC()
	if err := s.sender.Send(userID, s.nextMessage()); err != nil {
		if errors.Is(err, delivery.ErrRecipientGone) {
			if derr := s.repo.SetEnabled(ctx, userID, false, now); derr != nil {
				return false, derr
			}
			return false, nil
		}
		return false, err
	}
	if err := s.repo.RecordReminder(ctx, userID, now); err != nil {
		return true, err
	}
	return true, nil
}

// Stats reports aggregate reminder tracking numbers.
func (s *Scheduler) Stats(ctx context.Context) (*store.ReminderStats, error) {
	return s.repo.Stats(ctx)
}
