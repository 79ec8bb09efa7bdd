package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func NewDoctorCmd() *cobra.Command {
	var pull bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the analysis service and list supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			health, err := app.Service.CheckHealth(ctx)
			if err != nil {
				return fmt.Errorf("analysis service is not reachable at %s: %w", app.Config.Backend.URL, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Service: %s\n", health.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "Ollama connected: %v\n", health.OllamaConnected)
			fmt.Fprintf(cmd.OutOrStdout(), "Model: %s (available: %v)\n", health.Model, health.ModelAvailable)
			if !health.ModelAvailable {
				fmt.Fprintln(cmd.OutOrStdout(), "Model is not available. Run `revu doctor --pull` to download it.")
			}

			if pull {
				fmt.Fprintf(cmd.OutOrStdout(), "Pulling model %s (this can take a while)...\n", app.Config.Backend.Model)
				if err := app.Service.PullModel(ctx, app.Config.Backend.Model); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Model pulled.")
			}

			languages, err := app.Service.Languages(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nSupported languages (%d):\n", len(languages))
			for _, lang := range languages {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %s\n", lang.Alias, strings.Join(lang.Extensions, " "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pull, "pull", false, "Pull the configured model if missing")
	return cmd
}
