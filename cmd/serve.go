package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/reframebot/internal/catalog"
	"github.com/example/reframebot/internal/delivery"
	"github.com/example/reframebot/internal/llm"
	"github.com/example/reframebot/internal/progress"
	"github.com/example/reframebot/internal/reminder"
	"github.com/example/reframebot/internal/scoring"
	"github.com/example/reframebot/internal/session"
	"github.com/example/reframebot/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reminder scheduler and delivery loop",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	s, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	// First run against an empty database gets the built-in curriculum.
	if n, err := s.Tricks().Count(ctx); err != nil {
		return fmt.Errorf("count tricks: %w", err)
	} else if n == 0 {
		if err := catalog.Seed(ctx, s.Tricks(), s.Statements()); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		log.Info("seeded empty catalog")
	}

	cat := catalog.New(s.Tricks())
	bank := catalog.NewBank(s.Statements())

	keyword := scoring.NewKeywordAnalyzer(cat)
	var oracle scoring.Analyzer = keyword
	provider, err := llm.NewProvider(ctx, cfg.LLM, log)
	if err != nil {
		log.Warn("llm provider not configured, scoring uses keyword matching only",
			zap.Error(err))
	} else {
		analyzer := scoring.NewLLMAnalyzer(provider, cat, newRNG())
		oracle = scoring.NewOracle(analyzer, keyword, cfg.LLM.Timeout, log)
		log.Info("llm provider ready",
			zap.String("provider", cfg.LLM.Provider),
			zap.String("model", provider.ModelID()))
	}

	feedback := scoring.NewFeedbackEngine(cat, newRNG())
	tracker := progress.NewTracker(s.Progress(), s.Responses(), s.Sessions(), cat, log)
	mgr := session.NewManager(
		s.Sessions(), s.Responses(), s.Reminders(),
		cat, bank, oracle, feedback, tracker,
		newRNG(), log, nil,
	)

	sender, err := delivery.NewTelegram(cfg.TelegramToken, log)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	sched := reminder.New(s.Reminders(), sender, log,
		reminder.WithDailyAt(cfg.ReminderAt),
		reminder.WithIdle(cfg.ReminderIdle),
	)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	go cleanupLoop(ctx, mgr, log)

	log.Info("serving",
		zap.String("dialect", s.Dialect()),
		zap.String("reminder_at", cfg.ReminderAt),
		zap.Duration("reminder_idle", cfg.ReminderIdle))

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

// cleanupLoop abandons stale sessions once at startup and then daily.
func cleanupLoop(ctx context.Context, mgr *session.Manager, log *zap.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		if n, err := mgr.CleanupStale(ctx); err != nil {
			log.Warn("stale session cleanup failed", zap.Error(err))
		} else if n > 0 {
			log.Info("abandoned stale sessions", zap.Int("count", n))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
