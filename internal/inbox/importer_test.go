package inbox_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/catalog"
	"shelver/internal/config"
	"shelver/internal/inbox"
	"shelver/internal/logging"
	"shelver/internal/services"
	"shelver/internal/testsupport"
	"shelver/internal/transfer"
	"shelver/internal/watch"
)

func build(t *testing.T, cfg *config.Config, store *catalog.Store, extra ...watch.Notifier) *inbox.Components {
	t.Helper()
	components, err := inbox.Build(cfg, store, logging.NewNop(), extra...)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return components
}

func TestImportFileMovesUsingInboxLayout(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	recorder := &watch.Recorder{}
	components := build(t, cfg, store, recorder)

	source := filepath.Join(cfg.Paths.InboxDir, "Frank Herbert", "Dune", "dune.epub")
	testsupport.WriteContent(t, source, "spice")

	result, err := components.Importer.ImportFile(context.Background(), source)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}

	want := filepath.Join(cfg.Paths.LibraryDir, "Frank Herbert", "Dune", "Dune.epub")
	if result.File.Path != want {
		t.Fatalf("expected destination %q, got %q", want, result.File.Path)
	}
	if result.Outcome != transfer.Moved {
		t.Fatalf("expected moved outcome, got %s", result.Outcome)
	}
	if got := testsupport.ReadContent(t, want); got != "spice" {
		t.Fatalf("unexpected content %q", got)
	}
	testsupport.AssertMissing(t, source)
	testsupport.AssertMissing(t, filepath.Join(cfg.Paths.InboxDir, "Frank Herbert"))
	if _, err := os.Stat(cfg.Paths.InboxDir); err != nil {
		t.Fatalf("inbox root should be kept: %v", err)
	}

	if result.File.ID == 0 {
		t.Fatal("expected catalog record id")
	}
	saved, err := store.FileByPath(context.Background(), want)
	if err != nil {
		t.Fatalf("FileByPath: %v", err)
	}
	if saved.Size != int64(len("spice")) {
		t.Fatalf("unexpected stored size %d", saved.Size)
	}

	entries, err := store.History(context.Background(), catalog.HistoryFilter{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 || entries[0].Operation != "move_for_import" {
		t.Fatalf("unexpected history: %#v", entries)
	}

	events := recorder.Events()
	if len(events) != 1 || events[0].AuthorFolder == "" || events[0].BookFolder == "" {
		t.Fatalf("expected one folder-created event with author and book, got %#v", events)
	}
}

func TestImportFileCopiesInCopyMode(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithImportMode("copy"))
	components := build(t, cfg, nil)

	source := filepath.Join(cfg.Paths.InboxDir, "Ann Leckie", "ancillary.epub")
	testsupport.WriteContent(t, source, "justice")

	result, err := components.Importer.ImportFile(context.Background(), source)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if result.Outcome != transfer.Copied {
		t.Fatalf("expected copied outcome, got %s", result.Outcome)
	}
	want := filepath.Join(cfg.Paths.LibraryDir, "Ann Leckie", "ancillary", "ancillary.epub")
	if result.File.Path != want {
		t.Fatalf("expected destination %q, got %q", want, result.File.Path)
	}
	if got := testsupport.ReadContent(t, source); got != "justice" {
		t.Fatalf("source should be untouched, got %q", got)
	}
}

func TestImportFileReportsConflicts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	components := build(t, cfg, nil)

	source := filepath.Join(cfg.Paths.InboxDir, "Frank Herbert", "Dune", "dune.epub")
	testsupport.WriteContent(t, source, "new")
	existing := filepath.Join(cfg.Paths.LibraryDir, "Frank Herbert", "Dune", "Dune.epub")
	testsupport.WriteContent(t, existing, "old")

	if _, err := components.Importer.ImportFile(context.Background(), source); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := testsupport.ReadContent(t, existing); got != "old" {
		t.Fatalf("existing file overwritten: %q", got)
	}
	if got := testsupport.ReadContent(t, source); got != "new" {
		t.Fatalf("source should remain: %q", got)
	}
}

func TestImportFileRejectsMissingSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	components := build(t, cfg, nil)

	_, err := components.Importer.ImportFile(context.Background(), filepath.Join(cfg.Paths.InboxDir, "ghost.epub"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAccepts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	components := build(t, cfg, nil)

	cases := map[string]bool{
		"/inbox/book.M4B":        true,
		"/inbox/book.epub":       true,
		"/inbox/.hidden.mp3":     false,
		"/inbox/book.mp3.part":   false,
		"/inbox/cover.jpg":       false,
		"/inbox/Author/Book.pdf": true,
	}
	for path, want := range cases {
		if got := components.Importer.Accepts(path); got != want {
			t.Errorf("Accepts(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestPendingListsAcceptedFilesInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	components := build(t, cfg, nil)

	two := filepath.Join(cfg.Paths.InboxDir, "B Author", "Two", "two.epub")
	one := filepath.Join(cfg.Paths.InboxDir, "A Author", "One", "one.epub")
	testsupport.WriteContent(t, two, "2")
	testsupport.WriteContent(t, one, "1")
	testsupport.WriteContent(t, filepath.Join(cfg.Paths.InboxDir, "B Author", "Two", "cover.jpg"), "img")
	testsupport.WriteContent(t, filepath.Join(cfg.Paths.InboxDir, ".trash", "old.epub"), "x")

	paths, err := components.Importer.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(paths) != 2 || paths[0] != one || paths[1] != two {
		t.Fatalf("unexpected pending files %v", paths)
	}
}
