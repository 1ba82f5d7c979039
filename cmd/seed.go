package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/reframebot/internal/catalog"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the built-in trick catalog and statement bank",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := context.Background()
		if err := catalog.Seed(ctx, s.Tricks(), s.Statements()); err != nil {
			return fmt.Errorf("seed: %w", err)
		}

		cat := catalog.New(s.Tricks())
		rows, err := cat.Summary(ctx)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}

		fmt.Printf("%-3s  %-28s  %8s  %8s\n", "ID", "Name", "Keywords", "Examples")
		for _, r := range rows {
			fmt.Printf("%-3d  %-28s  %8d  %8d\n", r.ID, r.Name, r.KeywordCount, r.ExampleCount)
		}
		fmt.Printf("\nSeeded %d tricks.\n", len(rows))
		return nil
	},
}
