package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/reframebot/internal/catalog"
	"github.com/example/reframebot/internal/progress"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a user's learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetInt64("user")
		days, _ := cmd.Flags().GetInt("days")
		if userID == 0 {
			return fmt.Errorf("--user is required")
		}

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		cat := catalog.New(s.Tricks())
		tracker := progress.NewTracker(s.Progress(), s.Responses(), s.Sessions(), cat, zap.NewNop())
		now := time.Now().UTC()

		overall, err := tracker.Overall(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("overall: %w", err)
		}

		sep := strings.Repeat("─", 64)
		fmt.Printf("User %d\n%s\n", userID, sep)
		fmt.Printf("Tricks practiced:  %d / %d\n", overall.PracticedTricks, overall.TotalTricks)
		fmt.Printf("Tricks mastered:   %d  (%.0f%% of curriculum)\n",
			overall.MasteredTricks, overall.CompletionPercent())
		fmt.Printf("Average mastery:   %.1f\n", overall.AverageMastery)
		fmt.Printf("Attempts:          %d total, %d correct (%.0f%%)\n",
			overall.TotalAttempts, overall.TotalCorrect, overall.SuccessRate())
		fmt.Printf("Learning streak:   %d day(s)\n", overall.LearningStreak)
		if overall.LastSession != nil {
			fmt.Printf("Last session:      %s\n", overall.LastSession.Local().Format("2006-01-02 15:04"))
		}

		rows, err := tracker.ForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("progress: %w", err)
		}
		if len(rows) > 0 {
			fmt.Printf("\nPer-trick mastery\n%s\n", sep)
			fmt.Printf("%-3s  %-28s  %7s  %8s  %7s\n", "ID", "Trick", "Mastery", "Attempts", "Correct")
			for _, p := range rows {
				name := ""
				if tr, err := cat.ByID(ctx, p.TrickID); err == nil {
					name = tr.Name
				}
				mark := " "
				if p.Mastered() {
					mark = "*"
				}
				fmt.Printf("%-3d  %-28s  %6d%s  %8d  %7d\n",
					p.TrickID, name, p.MasteryLevel, mark, p.TotalAttempts, p.CorrectAttempts)
			}
		}

		stat, err := tracker.Statistics(ctx, userID, days, now)
		if err != nil {
			return fmt.Errorf("statistics: %w", err)
		}
		fmt.Printf("\nLast %d days\n%s\n", stat.PeriodDays, sep)
		fmt.Printf("Active days:       %d\n", stat.ActiveDays)
		fmt.Printf("Sessions:          %d started, %d completed\n",
			stat.TotalSessions, stat.CompletedSessions)
		if stat.AvgSessionMinutes > 0 {
			fmt.Printf("Avg session:       %.1f min\n", stat.AvgSessionMinutes)
		}
		fmt.Printf("Responses:         %d (%d correct, avg score %.0f)\n",
			stat.TotalResponses, stat.CorrectResponses, stat.AverageScore)

		achievements, err := tracker.Achievements(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("achievements: %w", err)
		}
		fmt.Printf("\nAchievements\n%s\n", sep)
		for _, a := range achievements {
			mark := " "
			if a.Completed {
				mark = "✓"
			}
			fmt.Printf("[%s] %-18s %s (%.0f/%.0f)\n",
				mark, a.Name, a.Description, a.Progress, a.Target)
		}

		recs, err := tracker.Recommendations(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("recommendations: %w", err)
		}
		if len(recs) > 0 {
			fmt.Printf("\nRecommended next\n%s\n", sep)
			for _, r := range recs {
				fmt.Printf("%-3d  %-28s  %s\n", r.TrickID, r.TrickName, r.Reason)
			}
		}

		return nil
	},
}

func init() {
	statsCmd.Flags().Int64P("user", "u", 0, "User ID to report on")
	statsCmd.Flags().IntP("days", "d", 30, "Trailing window for activity stats")
}
