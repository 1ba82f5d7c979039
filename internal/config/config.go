// Package config loads process configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/reframebot/internal/llm"
	"github.com/example/reframebot/internal/store"
)

// Config holds everything the binary needs to run. Zero values fall
// back to sensible local-development defaults.
type Config struct {
	// DatabaseURL is a postgres:// DSN or a filesystem path for SQLite.
	DatabaseURL string

	TelegramToken string

	// ReminderAt is the daily send time in "HH:MM" (UTC).
	ReminderAt string
	// ReminderIdle is how long a user must be inactive before a
	// reminder is sent.
	ReminderIdle time.Duration

	// Debug switches the logger to development mode.
	Debug bool

	LLM llm.Config
}

// FromEnv loads .env (if present) and reads REFRAME_* variables.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL:  store.DefaultDBPath(),
		ReminderAt:   "12:00",
		ReminderIdle: 7 * 24 * time.Hour,
		LLM:          llm.ConfigFromEnv(),
	}

	if v := os.Getenv("REFRAME_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REFRAME_TELEGRAM_TOKEN"); v != "" {
		cfg.TelegramToken = v
	}
	if v := os.Getenv("REFRAME_REMINDER_AT"); v != "" {
		cfg.ReminderAt = v
	}
	if v := os.Getenv("REFRAME_REMINDER_IDLE_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.ReminderIdle = time.Duration(days) * 24 * time.Hour
		}
	}
	if v := os.Getenv("REFRAME_DEBUG"); v != "" {
		cfg.Debug, _ = strconv.ParseBool(v)
	}

	// Let bare ANTHROPIC_API_KEY etc. work when the REFRAME_* variables
	// leave the selected provider without a key.
	if cfg.LLM.Validate() != nil {
		if discovered, ok := llm.DiscoverConfig(); ok {
			cfg.LLM = discovered
		}
	}
	return cfg
}

// Validate checks the fields the serve command depends on.
func (c Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("REFRAME_TELEGRAM_TOKEN is required")
	}
	if _, err := time.Parse("15:04", c.ReminderAt); err != nil {
		return fmt.Errorf("REFRAME_REMINDER_AT: want HH:MM, got %q", c.ReminderAt)
	}
	return nil
}
