package cli

import (
	"github.com/celiabustea/revu/internal/editor"
	"github.com/celiabustea/revu/internal/panel"
	"github.com/spf13/cobra"
)

func NewPanelCmd() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "panel [file]",
		Short: "Open the interactive review panel",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			dispatch := func(c panel.Command) {
				app.Orch.HandleCommand(ctx, c)
			}

			// Review before the panel starts; the completed result is cached
			// and replayed on attach, and nothing else touches the buffer
			// while panel commands are in flight.
			if len(args) == 1 {
				doc, err := editor.OpenBuffer(args[0])
				if err != nil {
					return err
				}
				if _, err := app.Orch.ReviewDocument(ctx, doc, language); err != nil {
					return err
				}
			}

			return panel.RunTUI(dispatch, app.Orch.AttachSurface, app.Orch.DetachSurface)
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Override detected language")
	return cmd
}
