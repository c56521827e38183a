package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func runWatcher(t *testing.T, opts Options) (<-chan []Event, context.CancelFunc) {
	t.Helper()
	w, err := NewWatcher(opts)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []Event, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(events []Event) { batches <- events })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return batches, cancel
}

func waitFor(t *testing.T, batches <-chan []Event, match func(Event) bool) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case batch := <-batches:
			for _, ev := range batch {
				if match(ev) {
					return ev
				}
			}
		case <-deadline:
			t.Fatal("timed out waiting for watch event")
		}
	}
}

func TestWatcherReportsExternalChangesRecursively(t *testing.T) {
	root := t.TempDir()
	batches, _ := runWatcher(t, Options{
		Root:      root,
		Recursive: true,
		Debounce:  50 * time.Millisecond,
		Filter:    func(p string) bool { return strings.HasSuffix(p, ".m4b") },
	})

	nested := filepath.Join(root, "Author")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	waitFor(t, batches, func(ev Event) bool { return ev.Path == nested })

	// Give the watcher a moment to register the new folder.
	time.Sleep(100 * time.Millisecond)
	target := filepath.Join(nested, "book.m4b")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ev := waitFor(t, batches, func(ev Event) bool { return ev.Path == target })
	if ev.ID == "" {
		t.Fatal("expected event id")
	}
}

func TestWatcherDropsSuppressedPaths(t *testing.T) {
	root := t.TempDir()
	suppressor := NewSuppressor(time.Minute)
	suppressed := make(chan string, 16)
	batches, _ := runWatcher(t, Options{
		Root:         root,
		Debounce:     20 * time.Millisecond,
		Suppressor:   suppressor,
		OnSuppressed: func(p string) { suppressed <- p },
	})

	ours := filepath.Join(root, "ours")
	suppressor.ReportChangeBeginning(ours)
	if err := os.Mkdir(ours, 0o755); err != nil {
		t.Fatal(err)
	}
	theirs := filepath.Join(root, "theirs")
	if err := os.Mkdir(theirs, 0o755); err != nil {
		t.Fatal(err)
	}

	ev := waitFor(t, batches, func(ev Event) bool { return ev.Path == theirs || ev.Path == ours })
	if ev.Path != theirs {
		t.Fatalf("expected only external change, got %q", ev.Path)
	}
	select {
	case p := <-suppressed:
		if p != ours {
			t.Fatalf("unexpected suppressed path %q", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected suppression callback")
	}
}

func TestNewWatcherRejectsMissingRoot(t *testing.T) {
	if _, err := NewWatcher(Options{Root: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestCloseStopsWatcher(t *testing.T) {
	w, err := NewWatcher(Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background(), func([]Event) {}) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run after Close: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
