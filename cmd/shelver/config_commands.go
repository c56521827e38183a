package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shelver/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				_, err := os.Lstat(target)
				switch {
				case err == nil:
					return fmt.Errorf("%s already exists (pass --overwrite to replace it)", target)
				case !errors.Is(err, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set paths.library_dir to an existing library folder and paths.inbox_dir to where new books arrive.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration file")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	if strings.TrimSpace(flagValue) == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return path, nil
	}
	path, err := config.ExpandPath(flagValue)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and check the folders it names",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if !ctx.configFound {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}

			rows := [][]string{
				{"library", cfg.Paths.LibraryDir, folderState(cfg.Paths.LibraryDir)},
				{"inbox", cfg.Paths.InboxDir, folderState(cfg.Paths.InboxDir)},
				{"data", cfg.Paths.DataDir, folderState(cfg.Paths.DataDir)},
				{"logs", cfg.Paths.LogDir, folderState(cfg.Paths.LogDir)},
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "Folder"},
				{header: "Path", maxWidth: 60, keepTail: true},
				{header: "State"},
			}, rows))

			if state := rows[0][2]; state != "ok" {
				fmt.Fprintf(out, "Warning: library directory %s is %s; imports will fail until it exists\n", cfg.Paths.LibraryDir, state)
			}
			fmt.Fprintf(out, "Import mode: %s (hardlinks: %t)\n", cfg.MediaManagement.ImportMode, cfg.MediaManagement.CopyUsingHardlinks)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func folderState(path string) string {
	if strings.TrimSpace(path) == "" {
		return "unset"
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "missing"
	case err != nil:
		return "unreadable"
	case !info.IsDir():
		return "not a folder"
	}
	return "ok"
}
