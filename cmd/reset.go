package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a user's sessions, responses, progress and reminder state",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetInt64("user")
		yes, _ := cmd.Flags().GetBool("yes")
		if userID == 0 {
			return fmt.Errorf("--user is required")
		}

		if !yes {
			fmt.Printf("Delete ALL learning data for user %d? [y/N] ", userID)
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.ToLower(strings.TrimSpace(line)) != "y" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.ResetUser(context.Background(), userID); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Printf("User %d reset.\n", userID)
		return nil
	},
}

func init() {
	resetCmd.Flags().Int64P("user", "u", 0, "User ID to reset")
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
