package reminder

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/reframebot/internal/delivery"
	"github.com/example/reframebot/internal/store"
)

type fakeSender struct {
	sent []int64
	msgs []string
	fail map[int64]error
}

func (f *fakeSender) Send(userID int64, text string) error {
	if err, ok := f.fail[userID]; ok {
		return err
	}
	f.sent = append(f.sent, userID)
	f.msgs = append(f.msgs, text)
	return nil
}

func newTestScheduler(t *testing.T, sender *fakeSender, now time.Time) (*Scheduler, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	sched := New(s.Reminders(), sender, zap.NewNop(),
		WithClock(func() time.Time { return now }))
	return sched, s
}

func TestSendDueTargetsIdleUsersOnly(t *testing.T) {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	sched, s := newTestScheduler(t, sender, now)
	ctx := context.Background()

	old := now.Add(-8 * 24 * time.Hour)
	if err := s.Reminders().RecordPractice(ctx, 1, old); err != nil {
		t.Fatalf("RecordPractice: %v", err)
	}
	if err := s.Reminders().RecordPractice(ctx, 2, now.Add(-time.Hour)); err != nil {
		t.Fatalf("RecordPractice: %v", err)
	}

	sent, err := sched.SendDue(ctx)
	if err != nil {
		t.Fatalf("SendDue: %v", err)
	}
	if sent != 1 || len(sender.sent) != 1 || sender.sent[0] != 1 {
		t.Fatalf("sent = %d to %v, want only user 1", sent, sender.sent)
	}

	// The reminder was recorded, so the user is no longer due.
	sent, err = sched.SendDue(ctx)
	if err != nil {
		t.Fatalf("second SendDue: %v", err)
	}
	if sent != 0 {
		t.Errorf("second batch sent %d, want 0", sent)
	}

	rt, err := s.Reminders().Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rt.ReminderCount != 1 {
		t.Errorf("ReminderCount = %d", rt.ReminderCount)
	}
}

func TestSendDueDisablesGoneRecipients(t *testing.T) {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	old := now.Add(-8 * 24 * time.Hour)
	sender := &fakeSender{fail: map[int64]error{
		1: fmt.Errorf("send: %w", delivery.ErrRecipientGone),
	}}
	sched, s := newTestScheduler(t, sender, now)
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		if err := s.Reminders().RecordPractice(ctx, id, old); err != nil {
			t.Fatalf("RecordPractice: %v", err)
		}
	}

	sent, err := sched.SendDue(ctx)
	if err != nil {
		t.Fatalf("SendDue: %v", err)
	}
	if sent != 1 || len(sender.sent) != 1 || sender.sent[0] != 2 {
		t.Errorf("sent = %d to %v, want only user 2", sent, sender.sent)
	}

	rt, err := s.Reminders().Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rt.RemindersEnabled {
		t.Error("gone recipient still enabled")
	}
}

func TestSendDueIsolatesTransientFailures(t *testing.T) {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	old := now.Add(-8 * 24 * time.Hour)
	sender := &fakeSender{fail: map[int64]error{1: errors.New("timeout")}}
	sched, s := newTestScheduler(t, sender, now)
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		if err := s.Reminders().RecordPractice(ctx, id, old); err != nil {
			t.Fatalf("RecordPractice: %v", err)
		}
	}

	sent, err := sched.SendDue(ctx)
	if err != nil {
		t.Fatalf("SendDue: %v", err)
	}
	if sent != 1 || sender.sent[0] != 2 {
		t.Errorf("sent = %d to %v", sent, sender.sent)
	}

	// A transient failure keeps the user eligible for the next batch.
	rt, err := s.Reminders().Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !rt.RemindersEnabled || rt.ReminderCount != 0 {
		t.Errorf("tracking after transient failure = %+v", rt)
	}
}

func TestMessagesRotate(t *testing.T) {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	sched, s := newTestScheduler(t, sender, now)
	ctx := context.Background()

	for i := 0; i < len(reminderMessages)+1; i++ {
		userID := int64(i + 1)
		if err := s.Reminders().RecordPractice(ctx, userID, now); err != nil {
			t.Fatalf("RecordPractice: %v", err)
		}
		if _, err := sched.ForceSend(ctx, userID); err != nil {
			t.Fatalf("ForceSend: %v", err)
		}
	}
	if sender.msgs[0] != reminderMessages[0] || sender.msgs[1] != reminderMessages[1] {
		t.Error("messages do not rotate in order")
	}
	if sender.msgs[len(reminderMessages)] != reminderMessages[0] {
		t.Error("rotation does not wrap around")
	}
}

func TestToggleAndForceSend(t *testing.T) {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	sched, s := newTestScheduler(t, sender, now)
	ctx := context.Background()

	if err := sched.Toggle(ctx, 5, false); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	rt, err := s.Reminders().Get(ctx, 5)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rt.RemindersEnabled {
		t.Error("Toggle(false) left reminders enabled")
	}

	ok, err := sched.ForceSend(ctx, 5)
	if err != nil {
		t.Fatalf("ForceSend: %v", err)
	}
	if !ok || len(sender.sent) != 1 {
		t.Errorf("ForceSend ok=%v sent=%v", ok, sender.sent)
	}
	rt, _ = s.Reminders().Get(ctx, 5)
	if rt.ReminderCount != 1 {
		t.Errorf("ReminderCount = %d", rt.ReminderCount)
	}
}

func TestForceSendGoneRecipient(t *testing.T) {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{fail: map[int64]error{
		3: fmt.Errorf("send: %w", delivery.ErrRecipientGone),
	}}
	sched, s := newTestScheduler(t, sender, now)
	ctx := context.Background()

	if err := sched.RecordPractice(ctx, 3); err != nil {
		t.Fatalf("RecordPractice: %v", err)
	}
	ok, err := sched.ForceSend(ctx, 3)
	if err != nil {
		t.Fatalf("ForceSend: %v", err)
	}
	if ok {
		t.Error("ForceSend reported success for a gone recipient")
	}
	rt, _ := s.Reminders().Get(ctx, 3)
	if rt.RemindersEnabled {
		t.Error("gone recipient still enabled")
	}
}

func TestStats(t *testing.T) {
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	sched, s := newTestScheduler(t, sender, now)
	ctx := context.Background()

	if err := s.Reminders().RecordPractice(ctx, 1, now); err != nil {
		t.Fatalf("RecordPractice: %v", err)
	}
	if err := s.Reminders().RecordPractice(ctx, 2, now); err != nil {
		t.Fatalf("RecordPractice: %v", err)
	}
	if _, err := sched.ForceSend(ctx, 1); err != nil {
		t.Fatalf("ForceSend: %v", err)
	}

	st, err := sched.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TrackedUsers != 2 || st.RemindedUsers != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestStartAndStop(t *testing.T) {
	now := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	sender := &fakeSender{}
	sched, _ := newTestScheduler(t, sender, now)

	if err := sched.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sched.Stop()
	sched.Stop() // idempotent
}
