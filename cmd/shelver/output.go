package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"shelver/internal/organizer"
	"shelver/internal/watch"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type resultView struct {
	Operation      string   `json:"operation"`
	Source         string   `json:"source"`
	Destination    string   `json:"destination,omitempty"`
	Outcome        string   `json:"outcome,omitempty"`
	Truncated      bool     `json:"truncated,omitempty"`
	FoldersCreated []string `json:"folders_created,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	Error          string   `json:"error,omitempty"`
}

func newResultView(result organizer.Result, source string, events []watch.FolderCreatedEvent, err error) resultView {
	view := resultView{
		Operation:   result.Operation,
		Source:      source,
		Destination: result.File.Path,
		Truncated:   result.Plan.Truncated,
		Warnings:    result.Warnings,
	}
	if err != nil {
		view.Error = err.Error()
		return view
	}
	view.Outcome = result.Outcome.String()
	for _, event := range events {
		view.FoldersCreated = append(view.FoldersCreated, event.Paths()...)
	}
	return view
}

func printResult(out io.Writer, verb string, view resultView) {
	if view.Error != "" {
		fmt.Fprintf(out, "Failed %s: %s\n", filepath.Base(view.Source), view.Error)
		return
	}
	fmt.Fprintf(out, "%s %s -> %s (%s)\n", verb, view.Source, view.Destination, view.Outcome)
	for _, folder := range view.FoldersCreated {
		fmt.Fprintf(out, "  created folder %s\n", folder)
	}
	if view.Truncated {
		fmt.Fprintln(out, "  file name shortened to fit the path limit")
	}
	if len(view.Warnings) > 0 {
		fmt.Fprintf(out, "  warnings: %s\n", strings.Join(view.Warnings, "; "))
	}
}
