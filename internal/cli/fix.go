package cli

import (
	"fmt"

	"github.com/celiabustea/revu/internal/backend"
	"github.com/celiabustea/revu/internal/editor"
	"github.com/spf13/cobra"
)

func NewFixCmd() *cobra.Command {
	var findingNum int
	var all bool
	var language string

	cmd := &cobra.Command{
		Use:   "fix <file>",
		Short: "Review a file, then generate and apply fixes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			if !all && findingNum == 0 {
				return fmt.Errorf("pass --finding N or --all")
			}
			if all && findingNum != 0 {
				return fmt.Errorf("--finding and --all are mutually exclusive")
			}

			doc, err := editor.OpenBuffer(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			result, err := app.Orch.ReviewDocument(ctx, doc, language)
			if err != nil {
				return err
			}
			if len(result.Findings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No issues found!")
				return nil
			}

			if all {
				outcome, err := app.Orch.FixAll(ctx, result.Language, result.Findings)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d/%d fixes.\n", outcome.Applied, outcome.Total)
				for _, failure := range outcome.Failures {
					fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s\n", failure)
				}
				return nil
			}

			if findingNum < 1 || findingNum > len(result.Findings) {
				return fmt.Errorf("finding %d out of range; the review has %d finding(s)", findingNum, len(result.Findings))
			}
			finding := result.Findings[findingNum-1]
			fix := app.Orch.GenerateFix(ctx, findingNum-1, backend.FixRequest{
				Language:    result.Language,
				CodeSnippet: finding.CodeSnippet,
				Description: finding.Description,
				Suggestion:  finding.Suggestion,
			}, finding.LineNumber)
			if !fix.Success {
				return fmt.Errorf("fix generation failed: %s", fix.Error)
			}
			if err := app.Orch.ApplyFix(fix.FixCode, fix.Original, finding.LineNumber); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied fix for finding %d: %s\n", findingNum, finding.Title)
			return nil
		},
	}

	cmd.Flags().IntVar(&findingNum, "finding", 0, "Fix a single finding by its 1-based number")
	cmd.Flags().BoolVar(&all, "all", false, "Generate and apply fixes for every finding")
	cmd.Flags().StringVar(&language, "language", "", "Override detected language")
	return cmd
}
