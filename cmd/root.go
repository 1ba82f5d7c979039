package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/reframebot/internal/config"
	"github.com/example/reframebot/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "reframebot",
	Short: "Language reframing trainer",
	Long:  "Reframebot is a conversational trainer for the 14 language reframing tricks, with AI scoring and retention reminders.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database DSN or SQLite path (overrides REFRAME_DATABASE_URL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig applies the --db flag on top of the environment.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.FromEnv()
	if dsn, _ := cmd.Flags().GetString("db"); dsn != "" {
		cfg.DatabaseURL = dsn
	}
	return cfg
}

// openStore connects using the resolved configuration.
func openStore(cmd *cobra.Command) (*store.Store, config.Config, error) {
	cfg := loadConfig(cmd)
	s, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, cfg, fmt.Errorf("open store: %w", err)
	}
	return s, cfg, nil
}

// newLogger builds the process logger.
func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
