package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"shelver/internal/catalog"
	"shelver/internal/config"
	"shelver/internal/library"
	"shelver/internal/naming"
	"shelver/internal/organizer"
	"shelver/internal/tags"
	"shelver/internal/watch"
)

func newReorganizeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "reorganize [file...]",
		Short: "Move library files to their canonical paths",
		Long: `Reorganize re-derives each file's canonical path from its tags (or its
current author/book folders) and the naming templates, moving files whose
location no longer matches. Without arguments every catalogued file is
processed; paths not yet in the catalog are added first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			recorder := &watch.Recorder{}
			components, _, err := ctx.components(recorder)
			if err != nil {
				return err
			}
			store, err := ctx.openCatalog()
			if err != nil {
				return err
			}

			files, err := reorganizeTargets(cmd, store, args)
			if err != nil {
				return err
			}

			builder := naming.NewBuilder(naming.OptionsFromConfig(cfg))
			reader := tags.NewFileReader()
			out := cmd.OutOrStdout()
			views := make([]resultView, 0, len(files))
			failed, unchanged := 0, 0
			for _, file := range files {
				author, edition, file := describe(cmd, cfg, builder, reader, file)
				if components.Organizer.CanonicalPath(file, author, edition) == file.Path {
					unchanged++
					continue
				}
				recorder.Reset()
				source := file.Path
				result, err := components.Organizer.MoveForReorganizationDetailed(cmd.Context(), file, author, edition)
				if errors.Is(err, organizer.ErrSamePath) {
					unchanged++
					continue
				}
				if err != nil {
					failed++
				}
				view := newResultView(result, source, recorder.Events(), err)
				views = append(views, view)
				if !jsonOutput {
					printResult(out, "Moved", view)
				}
			}

			if jsonOutput {
				if err := writeJSON(cmd, views); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "%d moved, %d already organized, %d failed\n", len(views)-failed, unchanged, failed)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to reorganize", failed, len(files))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit results as JSON")
	return cmd
}

func reorganizeTargets(cmd *cobra.Command, store *catalog.Store, args []string) ([]library.ManagedFile, error) {
	if len(args) == 0 {
		return store.ListFiles(cmd.Context())
	}
	files := make([]library.ManagedFile, 0, len(args))
	for _, arg := range args {
		path, err := config.ExpandPath(arg)
		if err != nil {
			return nil, err
		}
		file, err := store.FileByPath(cmd.Context(), path)
		if errors.Is(err, catalog.ErrFileNotFound) {
			info, statErr := os.Stat(path)
			if statErr != nil {
				return nil, fmt.Errorf("%s: %w", path, statErr)
			}
			file, err = store.SaveFile(cmd.Context(), library.ManagedFile{Path: path, Size: info.Size(), Modified: info.ModTime()})
		}
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// describe resolves the author and edition of a library file from its tags,
// falling back to the <Author>/<Book>/ folders it currently sits in.
func describe(cmd *cobra.Command, cfg *config.Config, builder *naming.Builder, reader tags.Reader, file library.ManagedFile) (library.Author, library.Edition, library.ManagedFile) {
	meta := tags.Resolve(cmd.Context(), reader, cfg.Paths.LibraryDir, file.Path)
	author := meta.LibraryAuthor()
	author.Path = filepath.Join(cfg.Paths.LibraryDir, builder.BuildAuthorFolderName(author))
	if file.PartCount == 0 && meta.PartCount > 1 {
		file.Part = meta.Part
		file.PartCount = meta.PartCount
	}
	return author, meta.Edition(), file
}
