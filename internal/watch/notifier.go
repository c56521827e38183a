package watch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level names one of the folder levels a file's canonical path passes through.
type Level string

const (
	LevelAuthor Level = "author"
	LevelBook   Level = "book"
	LevelTrack  Level = "track"
)

// FolderCreatedEvent lists the folder levels created by one operation. Levels
// that already existed are left empty.
type FolderCreatedEvent struct {
	ID           string
	Time         time.Time
	AuthorFolder string
	BookFolder   string
	TrackFolder  string
}

// NewFolderCreatedEvent stamps an event with a fresh identifier.
func NewFolderCreatedEvent(author, book, track string) FolderCreatedEvent {
	return FolderCreatedEvent{
		ID:           uuid.NewString(),
		Time:         time.Now().UTC(),
		AuthorFolder: author,
		BookFolder:   book,
		TrackFolder:  track,
	}
}

// Created maps each created level to its folder.
func (e FolderCreatedEvent) Created() map[Level]string {
	out := make(map[Level]string, 3)
	if e.AuthorFolder != "" {
		out[LevelAuthor] = e.AuthorFolder
	}
	if e.BookFolder != "" {
		out[LevelBook] = e.BookFolder
	}
	if e.TrackFolder != "" {
		out[LevelTrack] = e.TrackFolder
	}
	return out
}

// Paths returns the created folder paths, outermost first.
func (e FolderCreatedEvent) Paths() []string {
	paths := make([]string, 0, 3)
	for _, p := range []string{e.AuthorFolder, e.BookFolder, e.TrackFolder} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Notifier receives structural change notifications from the organizer.
type Notifier interface {
	// ReportChangeBeginning is called before any folder is checked or created.
	ReportChangeBeginning(paths ...string)
	// FolderStructureCreated is called at most once per operation, and only
	// when at least one folder was created.
	FolderStructureCreated(ctx context.Context, event FolderCreatedEvent) error
}

// Nop discards notifications.
type Nop struct{}

func (Nop) ReportChangeBeginning(...string) {}

func (Nop) FolderStructureCreated(context.Context, FolderCreatedEvent) error { return nil }

// Fanout broadcasts notifications to every wrapped Notifier.
type Fanout []Notifier

// NewFanout drops nil notifiers.
func NewFanout(notifiers ...Notifier) Fanout {
	out := make(Fanout, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (f Fanout) ReportChangeBeginning(paths ...string) {
	for _, n := range f {
		n.ReportChangeBeginning(paths...)
	}
}

func (f Fanout) FolderStructureCreated(ctx context.Context, event FolderCreatedEvent) error {
	var errs []error
	for _, n := range f {
		if err := n.FolderStructureCreated(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu            sync.Mutex
	announcements [][]string
	events        []FolderCreatedEvent
}

func (r *Recorder) ReportChangeBeginning(paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.announcements = append(r.announcements, append([]string(nil), paths...))
}

func (r *Recorder) FolderStructureCreated(_ context.Context, event FolderCreatedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Announcements returns a copy of the announced path sets.
func (r *Recorder) Announcements() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.announcements))
	for i, paths := range r.announcements {
		out[i] = append([]string(nil), paths...)
	}
	return out
}

// Events returns a copy of the recorded folder-created events.
func (r *Recorder) Events() []FolderCreatedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FolderCreatedEvent(nil), r.events...)
}

// Reset clears everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.announcements = nil
	r.events = nil
}
