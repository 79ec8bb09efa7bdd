package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/celiabustea/revu/internal/editor"
	"github.com/celiabustea/revu/internal/review"
	"github.com/spf13/cobra"
)

func NewReviewCmd() *cobra.Command {
	var lines string
	var language string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "review <file>",
		Short: "Review a file (or a line range) with the local analysis service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := editor.OpenBuffer(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var result review.Result
			if lines != "" {
				start, end, err := parseLineRange(lines)
				if err != nil {
					return err
				}
				result, err = app.Orch.ReviewSelection(ctx, doc, language, start, end)
				if err != nil {
					return err
				}
			} else {
				result, err = app.Orch.ReviewDocument(ctx, doc, language)
				if err != nil {
					return err
				}
			}

			if jsonOut {
				return printJSON(cmd, result)
			}
			review.WriteReport(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&lines, "lines", "", "Review only lines START:END (1-based, inclusive)")
	cmd.Flags().StringVar(&language, "language", "", "Override detected language")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}

func parseLineRange(value string) (int, int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid --lines value %q; expected START:END", value)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --lines start %q", parts[0])
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --lines end %q", parts[1])
	}
	if start < 1 || end < start {
		return 0, 0, fmt.Errorf("invalid --lines range %d:%d", start, end)
	}
	return start, end, nil
}

func printJSON(cmd *cobra.Command, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write([]byte("\n"))
	return err
}
