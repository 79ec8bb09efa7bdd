package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewHistoryCmd() *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			if limit == 0 {
				limit = app.Config.History.Limit
			}

			records, err := app.Store.RecentReviews(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No reviews recorded yet.")
				return nil
			}
			for _, record := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%s)\n",
					record.CreatedAt.Format("2006-01-02 15:04"), record.FilePath, record.Language)
				fmt.Fprintf(cmd.OutOrStdout(), "  %d issue(s), %d critical, %d high\n",
					record.TotalIssues, record.CriticalCount, record.HighCount)
				if record.Summary != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", record.Summary)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
