package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewConfigCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, map[string]any{
					"config": app.Config,
					"repo":   app.RepoConfig,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend URL: %s\n", app.Config.Backend.URL)
			fmt.Fprintf(out, "Backend timeout: %s\n", app.Config.Backend.Timeout())
			fmt.Fprintf(out, "Model: %s\n", app.Config.Backend.Model)
			fmt.Fprintf(out, "Redaction: %v\n", app.Config.Redaction.Enabled)
			fmt.Fprintf(out, "History limit: %d\n", app.Config.History.Limit)
			fmt.Fprintf(out, "Staged fail_on: %s\n", app.RepoConfig.Staged.FailOn)
			guidelines := append(append([]string{}, app.Config.Guidelines...), app.RepoConfig.Guidelines...)
			if len(guidelines) > 0 {
				fmt.Fprintf(out, "Guidelines:\n  %s\n", strings.Join(guidelines, "\n  "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
