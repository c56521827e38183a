package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shelver/internal/config"
	"shelver/internal/watch"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var mode string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import files into the library",
		Long: `Import organizes files into the library using their embedded tags, falling
back to the inbox layout (<inbox>/<Author>/<Title>/<file>). Without arguments
every accepted file in the inbox is imported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if mode = strings.ToLower(strings.TrimSpace(mode)); mode != "" {
				if mode != "move" && mode != "copy" {
					return fmt.Errorf("--mode must be move or copy, got %q", mode)
				}
				cfg.MediaManagement.ImportMode = mode
			}

			recorder := &watch.Recorder{}
			components, _, err := ctx.components(recorder)
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				paths, err = components.Importer.Pending()
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			views := make([]resultView, 0, len(paths))
			failed := 0
			for _, arg := range paths {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				recorder.Reset()
				result, err := components.Importer.ImportFile(cmd.Context(), path)
				if err != nil {
					failed++
				}
				view := newResultView(result, path, recorder.Events(), err)
				views = append(views, view)
				if !jsonOutput {
					printResult(out, "Imported", view)
				}
			}

			if jsonOutput {
				if err := writeJSON(cmd, views); err != nil {
					return err
				}
			} else if len(paths) == 0 {
				fmt.Fprintln(out, "Inbox is empty")
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d imports failed", failed, len(paths))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Override media_management.import_mode (move or copy)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit results as JSON")
	return cmd
}
