package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"shelver/internal/catalog"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var failedOnly bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}
			filter := catalog.HistoryFilter{Limit: limit}
			if failedOnly {
				filter.Status = catalog.StatusFailed
			}
			entries, err := store.History(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No transfers recorded")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				detail := entry.Outcome
				if entry.Status == catalog.StatusFailed {
					detail = entry.Reason
				}
				rows = append(rows, []string{
					strconv.FormatInt(entry.ID, 10),
					entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					statusLabel(entry.Status, colorize),
					entry.Operation,
					filepath.Base(entry.Source),
					entry.Destination,
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(historyColumns, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed operations")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit entries as JSON")
	return cmd
}

var historyColumns = []column{
	{header: "ID", align: text.AlignRight},
	{header: "When"},
	{header: "Status"},
	{header: "Operation"},
	{header: "Source", maxWidth: 32, keepTail: true},
	{header: "Destination", maxWidth: 56, keepTail: true},
	{header: "Detail", maxWidth: 40},
}

func statusLabel(status string, colorize bool) string {
	if !colorize {
		return status
	}
	switch status {
	case catalog.StatusCompleted:
		return text.FgGreen.Sprint(status)
	case catalog.StatusFailed:
		return text.FgRed.Sprint(status)
	default:
		return status
	}
}
