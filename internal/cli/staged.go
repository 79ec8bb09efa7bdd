package cli

import (
	"errors"
	"fmt"

	"github.com/celiabustea/revu/internal/orchestrator"
	"github.com/celiabustea/revu/internal/review"
	"github.com/spf13/cobra"
)

func NewStagedCmd() *cobra.Command {
	var yes bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "staged",
		Short: "Review all staged files before committing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}

			outcome, err := app.Orch.ReviewStaged(cmd.Context())
			if errors.Is(err, orchestrator.ErrNoStagedChanges) {
				fmt.Fprintln(cmd.OutOrStdout(), "No staged changes to review.")
				return nil
			}
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd, outcome)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reviewed %d staged file(s):\n", len(outcome.Files))
			for _, file := range outcome.Files {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (+%d -%d)\n", file.Path, file.Additions, file.Deletions)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			review.WriteReport(cmd.OutOrStdout(), outcome.Result)

			if outcome.NeedsWarning() && !yes {
				ok, err := confirm(cmd, fmt.Sprintf(
					"Found %d critical and %d high severity issue(s). Continue anyway? [y/N]: ",
					outcome.CriticalCount, outcome.HighCount))
				if err != nil {
					return err
				}
				if !ok {
					return stagedGateError(app.RepoConfig.Staged.FailOn, outcome)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the severity warning prompt")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

// stagedGateError turns a declined warning into an exit failure per the repo
// fail_on policy, so the command can gate a commit hook.
func stagedGateError(failOn string, outcome orchestrator.StagedOutcome) error {
	switch failOn {
	case "never":
		return nil
	case "critical":
		if outcome.CriticalCount == 0 {
			return nil
		}
	}
	return fmt.Errorf("staged review blocked: %d critical, %d high severity issue(s)",
		outcome.CriticalCount, outcome.HighCount)
}
