package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shelver/internal/inbox"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the inbox and library watchers in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			components, logger, err := ctx.components()
			if err != nil {
				return err
			}
			daemon, err := inbox.NewDaemon(cfg, components, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s for new files (library %s)\n", cfg.Paths.InboxDir, cfg.Paths.LibraryDir)
			if cfg.Metrics.Enabled {
				fmt.Fprintf(out, "Metrics on http://%s/metrics\n", cfg.Metrics.Bind)
			}
			return daemon.Run(cmd.Context())
		},
	}
}
