package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"shelver/internal/logging"
)

// Op is the kind of filesystem change carried by an Event.
type Op string

const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
	OpRename Op = "rename"
)

// Event is a debounced filesystem change made outside shelver.
type Event struct {
	ID   string
	Path string
	Op   Op
	Time time.Time
}

// Options configures a Watcher.
type Options struct {
	Root      string
	Recursive bool
	Debounce  time.Duration
	// Filter limits which file paths produce events. Directories are always
	// tracked so recursive watches can follow new folders.
	Filter func(path string) bool
	// Suppressor drops events caused by shelver itself.
	Suppressor   *Suppressor
	OnSuppressed func(path string)
	Logger       *slog.Logger
}

// Watcher reports debounced changes beneath a root folder.
type Watcher struct {
	opts    Options
	logger  *slog.Logger
	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]Event
	timer   *time.Timer
	flushCh chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewWatcher opens an fsnotify watcher over opts.Root.
func NewWatcher(opts Options) (*Watcher, error) {
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %q is not a directory", opts.Root)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		opts:    opts,
		logger:  logging.NewComponentLogger(opts.Logger, "watcher").With(logging.String("root", opts.Root)),
		fsw:     fsw,
		pending: make(map[string]Event),
		flushCh: make(chan struct{}, 1),
	}
	if err := w.addTree(opts.Root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	if !w.opts.Recursive {
		return w.fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.logger.Debug("skipping unreadable folder", logging.String("path", path), logging.Error(err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run delivers batches of events to emit until ctx is cancelled. Batches are
// sorted by path and contain at most one event per path.
func (w *Watcher) Run(ctx context.Context, emit func([]Event)) error {
	defer w.Close()
	w.logger.Info("watching folder", logging.Bool("recursive", w.opts.Recursive))
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logging.WarnWithContext(w.logger, "watch event queue overflowed", "watch_overflow",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "raise fs.inotify.max_queued_events"),
					logging.String(logging.FieldImpact, "some changes were not observed"),
				)
				continue
			}
			w.logger.Error("watcher error", logging.Error(err))
		case <-w.flushCh:
			if batch := w.drain(); len(batch) > 0 {
				emit(batch)
			}
		}
	}
}

// Close releases the fsnotify handle. A watcher that is closed before or
// during Run makes Run return. Safe to call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.fsw.Close()
	})
	return w.closeErr
}

func (w *Watcher) handle(event fsnotify.Event) {
	op, ok := translateOp(event.Op)
	if !ok {
		return
	}
	path := filepath.Clean(event.Name)

	isDir := false
	if op == OpCreate {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			isDir = true
			if w.opts.Recursive {
				if err := w.addTree(path); err != nil {
					w.logger.Warn("failed to watch new folder", logging.String("path", path), logging.Error(err))
				}
			}
		}
	}

	if w.opts.Suppressor != nil && w.opts.Suppressor.Suppressed(path) {
		w.logger.Debug("suppressed self-inflicted change", logging.String("path", path), logging.String("op", string(op)))
		if w.opts.OnSuppressed != nil {
			w.opts.OnSuppressed(path)
		}
		return
	}
	if !isDir && w.opts.Filter != nil && !w.opts.Filter(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = Event{ID: uuid.NewString(), Path: path, Op: op, Time: time.Now().UTC()}
	if w.opts.Debounce <= 0 {
		w.signal()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, w.signal)
}

func (w *Watcher) signal() {
	select {
	case w.flushCh <- struct{}{}:
	default:
	}
}

func (w *Watcher) drain() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	batch := make([]Event, 0, len(w.pending))
	for path, event := range w.pending {
		// Announcements may land after the raw event but before the flush.
		if w.opts.Suppressor != nil && w.opts.Suppressor.Suppressed(path) {
			continue
		}
		batch = append(batch, event)
	}
	w.pending = make(map[string]Event)
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	return batch
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func translateOp(op fsnotify.Op) (Op, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpWrite, true
	case op.Has(fsnotify.Remove):
		return OpRemove, true
	case op.Has(fsnotify.Rename):
		return OpRename, true
	}
	return "", false
}
