package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"shelver/internal/config"
	"shelver/internal/logging"
	"shelver/internal/metrics"
	"shelver/internal/services"
	"shelver/internal/watch"
)

// Daemon runs the inbox and library watchers and enforces single-instance
// execution per data directory.
type Daemon struct {
	cfg        *config.Config
	components *Components
	logger     *slog.Logger

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool

	// LibraryEvents receives external library changes. Optional.
	LibraryEvents func([]watch.Event)
	// Imported receives the source path of each successful inbox import. Optional.
	Imported func(string)
}

// NewDaemon constructs a daemon around prebuilt components.
func NewDaemon(cfg *config.Config, components *Components, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || components == nil {
		return nil, errors.New("daemon requires config and components")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:        cfg,
		components: components,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// LockPath returns the lock file guarding the daemon.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Running reports whether Run is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Run acquires the lock and blocks until ctx is cancelled or a watcher fails.
func (d *Daemon) Run(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}
	if _, err := os.Stat(d.cfg.Paths.LibraryDir); err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "start",
			fmt.Sprintf("Library directory %s does not exist", d.cfg.Paths.LibraryDir), err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return services.Wrap(services.ErrConflict, "daemon", "start", "Another shelver daemon is already running", nil)
	}
	d.running.Store(true)
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
		d.running.Store(false)
		d.logger.Info("shelver daemon stopped")
	}()

	inboxWatcher, libraryWatcher, err := d.openWatchers()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.logger.Info("shelver daemon started",
		logging.String("lock", d.lockPath),
		logging.String("inbox", d.cfg.Paths.InboxDir),
		logging.String("library", d.cfg.Paths.LibraryDir),
	)

	queue := make(chan string, 256)
	errCh := make(chan error, 5)
	var wg sync.WaitGroup
	start := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	start("import worker", func() error {
		d.importLoop(ctx, queue)
		return nil
	})
	start("inbox watcher", func() error {
		return inboxWatcher.Run(ctx, func(batch []watch.Event) {
			for _, event := range batch {
				if event.Op != watch.OpCreate && event.Op != watch.OpWrite {
					continue
				}
				select {
				case queue <- event.Path:
				case <-ctx.Done():
					return
				}
			}
		})
	})
	start("library watcher", func() error {
		return libraryWatcher.Run(ctx, d.handleLibraryEvents)
	})
	if d.cfg.Metrics.Enabled {
		start("metrics server", func() error {
			return metrics.Serve(ctx, d.cfg.Metrics.Bind, d.components.Registry, d.logger)
		})
	}

	// Files already waiting go through the same worker as watcher events so
	// no path is imported by two goroutines at once.
	start("initial scan", func() error {
		paths, err := d.components.Importer.Pending()
		if err != nil {
			d.logger.Warn("initial inbox scan failed", logging.Error(err))
			return nil
		}
		if len(paths) > 0 {
			d.logger.Info("queueing files already in the inbox", logging.Int("count", len(paths)))
		}
		for _, path := range paths {
			select {
			case queue <- path:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	<-ctx.Done()
	wg.Wait()
	close(errCh)
	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// openWatchers opens the inbox and library watchers. On failure nothing is
// left open.
func (d *Daemon) openWatchers() (*watch.Watcher, *watch.Watcher, error) {
	debounce := time.Duration(d.cfg.Watch.DebounceSeconds) * time.Second
	inboxWatcher, err := watch.NewWatcher(watch.Options{
		Root:      d.cfg.Paths.InboxDir,
		Recursive: true,
		Debounce:  debounce,
		Filter:    d.components.Importer.Accepts,
		Logger:    logging.NewComponentLogger(d.logger, "inbox-watch"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("watch inbox: %w", err)
	}
	libraryWatcher, err := watch.NewWatcher(watch.Options{
		Root:         d.cfg.Paths.LibraryDir,
		Recursive:    true,
		Debounce:     debounce,
		Suppressor:   d.components.Suppressor,
		OnSuppressed: d.components.Metrics.WatchSuppressed,
		Logger:       logging.NewComponentLogger(d.logger, "library-watch"),
	})
	if err != nil {
		if closeErr := inboxWatcher.Close(); closeErr != nil {
			d.logger.Warn("failed to close inbox watcher", logging.Error(closeErr))
		}
		return nil, nil, fmt.Errorf("watch library: %w", err)
	}
	return inboxWatcher, libraryWatcher, nil
}

func (d *Daemon) importLoop(ctx context.Context, queue <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-queue:
			if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
				continue
			}
			if _, err := d.components.Importer.ImportFile(ctx, path); err != nil {
				d.logger.Warn("inbox import failed", logging.String("source", path), logging.Error(err))
				continue
			}
			if d.Imported != nil {
				d.Imported(path)
			}
		}
	}
}

func (d *Daemon) handleLibraryEvents(batch []watch.Event) {
	for _, event := range batch {
		d.components.Metrics.WatchExternal(event.Op)
		d.logger.Info("external library change",
			logging.String("path", event.Path),
			logging.String("op", string(event.Op)),
			logging.String("event_id", event.ID),
		)
	}
	if d.LibraryEvents != nil {
		d.LibraryEvents(batch)
	}
}
