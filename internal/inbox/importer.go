package inbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shelver/internal/disk"
	"shelver/internal/library"
	"shelver/internal/logging"
	"shelver/internal/notifications"
	"shelver/internal/organizer"
	"shelver/internal/services"
	"shelver/internal/tags"
	"shelver/internal/transfer"
)

// Organizer is the subset of organizer.Service used for imports.
type Organizer interface {
	MoveForImportDetailed(ctx context.Context, file library.ManagedFile, importCtx library.ImportContext) (organizer.Result, error)
	CopyForImportDetailed(ctx context.Context, file library.ManagedFile, importCtx library.ImportContext) (organizer.Result, error)
}

// AuthorNamer renders the author folder name.
type AuthorNamer interface {
	BuildAuthorFolderName(author library.Author) string
}

// Catalog stores imported file records.
type Catalog interface {
	SaveFile(ctx context.Context, file library.ManagedFile) (library.ManagedFile, error)
}

// ImporterOptions configures an Importer.
type ImporterOptions struct {
	InboxDir   string
	LibraryDir string
	// ImportMode is "move" or "copy".
	ImportMode string
	Extensions []string
}

// ImporterDeps lists the Importer collaborators. Catalog, Notifications and
// Disk are optional.
type ImporterDeps struct {
	Organizer     Organizer
	Authors       AuthorNamer
	Tags          tags.Reader
	Catalog       Catalog
	Notifications notifications.Service
	Disk          disk.Provider
	Logger        *slog.Logger
}

// Importer moves or copies inbox files into the library.
type Importer struct {
	opts       ImporterOptions
	extensions map[string]struct{}
	deps       ImporterDeps
	logger     *slog.Logger
}

// NewImporter constructs an Importer.
func NewImporter(opts ImporterOptions, deps ImporterDeps) (*Importer, error) {
	if deps.Organizer == nil || deps.Authors == nil {
		return nil, errors.New("importer requires an organizer and an author namer")
	}
	if strings.TrimSpace(opts.LibraryDir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "inbox", "init", "Library directory is required", nil)
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &Importer{
		opts:       opts,
		extensions: exts,
		deps:       deps,
		logger:     logging.NewComponentLogger(deps.Logger, "inbox"),
	}, nil
}

// Accepts reports whether path is an importable file name. Hidden files and
// unknown extensions are ignored; an empty extension list accepts everything.
func (i *Importer) Accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".part") {
		return false
	}
	if len(i.extensions) == 0 {
		return true
	}
	_, ok := i.extensions[strings.ToLower(filepath.Ext(base))]
	return ok
}

// ImportFile organizes the file at path into the library.
func (i *Importer) ImportFile(ctx context.Context, path string) (organizer.Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return organizer.Result{}, services.Wrap(services.ErrNotFound, "inbox", "stat", fmt.Sprintf("Inbox file %s is not readable", path), err)
	}
	if !info.Mode().IsRegular() {
		return organizer.Result{}, services.Wrap(services.ErrValidation, "inbox", "stat", fmt.Sprintf("%s is not a regular file", path), nil)
	}

	meta := tags.Resolve(ctx, i.deps.Tags, i.opts.InboxDir, path)
	author := meta.LibraryAuthor()
	author.Path = filepath.Join(i.opts.LibraryDir, i.deps.Authors.BuildAuthorFolderName(author))
	edition := meta.Edition()
	file := meta.File(path, info.Size())
	file.Modified = info.ModTime()
	importCtx := library.ImportContext{Author: author, Edition: edition, SourcePath: path}

	logger := logging.WithContext(ctx, i.logger).With(
		logging.String("source", path),
		logging.String("author", author.Name),
		logging.String("title", edition.Title),
		logging.Bool("from_layout", meta.FromLayout),
	)
	logger.Debug("importing inbox file")

	var result organizer.Result
	if strings.EqualFold(i.opts.ImportMode, "copy") {
		result, err = i.deps.Organizer.CopyForImportDetailed(ctx, file, importCtx)
	} else {
		result, err = i.deps.Organizer.MoveForImportDetailed(ctx, file, importCtx)
	}
	if err != nil {
		if i.deps.Notifications != nil {
			if notifyErr := i.deps.Notifications.NotifyImportFailed(ctx, path, err); notifyErr != nil {
				logging.WarnWithContext(logger, "import failure notification not delivered", "notification_failed",
					logging.Error(notifyErr),
					logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
				)
			}
		}
		return result, err
	}

	if i.deps.Catalog != nil {
		saved, saveErr := i.deps.Catalog.SaveFile(ctx, result.File)
		if saveErr != nil {
			logging.WarnWithContext(logger, "imported file not recorded in catalog", "catalog_write_failed",
				logging.Error(saveErr),
				logging.String(logging.FieldImpact, "file is organized but missing from the catalog"),
			)
		} else {
			result.File = saved
		}
	}

	if result.Outcome == transfer.Moved {
		i.pruneInbox(logger, filepath.Dir(path))
	}
	logger.Info("inbox file imported",
		logging.String("destination", result.File.Path),
		logging.String("outcome", result.Outcome.String()),
	)
	return result, nil
}

// Pending lists the accepted files currently in the inbox, sorted by path.
func (i *Importer) Pending() ([]string, error) {
	root := i.opts.InboxDir
	if strings.TrimSpace(root) == "" {
		return nil, nil
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && i.Accepts(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan inbox: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// pruneInbox removes emptied folders from dir up to, not including, the inbox root.
func (i *Importer) pruneInbox(logger *slog.Logger, dir string) {
	if i.deps.Disk == nil || strings.TrimSpace(i.opts.InboxDir) == "" {
		return
	}
	root := filepath.Clean(i.opts.InboxDir)
	for {
		dir = filepath.Clean(dir)
		rel, err := filepath.Rel(root, dir)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			return
		}
		removed, err := i.deps.Disk.RemoveEmptyFolder(dir)
		if err != nil {
			logger.Debug("inbox folder not pruned", logging.String("folder", dir), logging.Error(err))
			return
		}
		if !removed {
			return
		}
		dir = filepath.Dir(dir)
	}
}
