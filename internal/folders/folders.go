package folders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"shelver/internal/disk"
	"shelver/internal/logging"
	"shelver/internal/watch"
)

// ErrRootFolderMissing reports that the library root above the author folder does not exist.
var ErrRootFolderMissing = errors.New("root folder missing")

// Levels are the three folders a destination passes through.
type Levels struct {
	Author string
	Book   string
	Track  string
}

// Record tracks which levels were created by one Ensure call.
type Record struct {
	Author bool
	Book   bool
	Track  bool
}

// Changed reports whether any level was created.
func (r Record) Changed() bool {
	return r.Author || r.Book || r.Track
}

// Observer is told about every folder the materializer creates.
type Observer interface {
	FolderCreated(level watch.Level)
}

// Materializer creates missing folder levels.
type Materializer struct {
	disk     disk.Provider
	notifier watch.Notifier
	observer Observer
	logger   *slog.Logger
}

// Option customizes a Materializer.
type Option func(*Materializer)

// WithObserver records created folders, e.g. in metrics.
func WithObserver(observer Observer) Option {
	return func(m *Materializer) { m.observer = observer }
}

// New constructs a Materializer.
func New(provider disk.Provider, notifier watch.Notifier, logger *slog.Logger, opts ...Option) *Materializer {
	if notifier == nil {
		notifier = watch.Nop{}
	}
	m := &Materializer{
		disk:     provider,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "folders"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ensure makes sure each level exists, creating missing ones. It fails only
// when the library root above levels.Author is missing.
func (m *Materializer) Ensure(ctx context.Context, levels Levels) (Record, error) {
	logger := logging.WithContext(ctx, m.logger)
	levels = Levels{
		Author: filepath.Clean(levels.Author),
		Book:   filepath.Clean(levels.Book),
		Track:  filepath.Clean(levels.Track),
	}

	m.notifier.ReportChangeBeginning(levels.Author, levels.Book, levels.Track)

	root := filepath.Dir(levels.Author)
	if !m.disk.FolderExists(root) {
		return Record{}, fmt.Errorf("%w: %s", ErrRootFolderMissing, root)
	}

	var record Record
	if !m.disk.FolderExists(levels.Author) {
		record.Author = m.create(logger, levels.Author, watch.LevelAuthor)
	}
	if levels.Book != levels.Author && !m.disk.FolderExists(levels.Book) {
		record.Book = m.create(logger, levels.Book, watch.LevelBook)
	}
	if levels.Track != levels.Book && !m.disk.FolderExists(levels.Track) {
		record.Track = m.create(logger, levels.Track, watch.LevelTrack)
	}

	if !record.Changed() {
		return record, nil
	}

	event := watch.NewFolderCreatedEvent(
		pick(record.Author, levels.Author),
		pick(record.Book, levels.Book),
		pick(record.Track, levels.Track),
	)
	if err := m.notifier.FolderStructureCreated(ctx, event); err != nil {
		logging.WarnWithContext(logger, "folder created notification failed", "folder_notify_failed",
			logging.Error(err),
			logging.String("event_id", event.ID),
			logging.String(logging.FieldErrorHint, "check notifier configuration"),
			logging.String(logging.FieldImpact, "downstream systems may rescan the new folders"),
		)
	}
	return record, nil
}

func pick(created bool, path string) string {
	if created {
		return path
	}
	return ""
}

// create ensures path exists by creating every missing ancestor top-down.
// It reports whether path itself was created.
func (m *Materializer) create(logger *slog.Logger, path string, level watch.Level) bool {
	var missing []string
	for current := path; !m.disk.FolderExists(current); current = filepath.Dir(current) {
		missing = append(missing, current)
		if parent := filepath.Dir(current); parent == current {
			break
		}
	}

	created := false
	for i := len(missing) - 1; i >= 0; i-- {
		dir := missing[i]
		if err := m.disk.CreateFolder(dir); err != nil {
			logging.WarnWithContext(logger, "failed to create folder", "folder_create_failed",
				logging.String("path", dir),
				logging.String("level", string(level)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check library permissions and free space"),
				logging.String(logging.FieldImpact, "transfer into this folder will likely fail"),
			)
			return false
		}
		if err := m.disk.SetFolderPermissions(dir); err != nil {
			logging.WarnWithContext(logger, "failed to set folder permissions", "folder_permissions_failed",
				logging.String("path", dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check chmod_folder and chown_group"),
			)
		}
		if m.observer != nil {
			m.observer.FolderCreated(level)
		}
		created = dir == path
	}
	if created {
		logger.Debug("folder created", logging.String("path", path), logging.String("level", string(level)))
	}
	return created
}
