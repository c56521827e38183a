package folders

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shelver/internal/disk"
	"shelver/internal/watch"
)

type flakyDisk struct {
	*disk.Local
	failOn  map[string]bool
	created []string
}

func (d *flakyDisk) CreateFolder(path string) error {
	if d.failOn[path] {
		return errors.New("simulated I/O error")
	}
	d.created = append(d.created, path)
	return d.Local.CreateFolder(path)
}

type countingObserver map[watch.Level]int

func (c countingObserver) FolderCreated(level watch.Level) { c[level]++ }

func newDisk() *flakyDisk {
	return &flakyDisk{Local: disk.NewLocal(disk.Policy{GID: -1}), failOn: map[string]bool{}}
}

func TestEnsureCreatesMissingLevelsAndEmitsOneEvent(t *testing.T) {
	root := t.TempDir()
	levels := Levels{
		Author: filepath.Join(root, "NewAuthor"),
		Book:   filepath.Join(root, "NewAuthor", "Book1 (2020)"),
		Track:  filepath.Join(root, "NewAuthor", "Book1 (2020)"),
	}
	rec := &watch.Recorder{}
	observer := countingObserver{}
	m := New(newDisk(), rec, nil, WithObserver(observer))

	record, err := m.Ensure(context.Background(), levels)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if !record.Author || !record.Book || record.Track {
		t.Fatalf("unexpected record %+v", record)
	}
	if _, err := os.Stat(levels.Book); err != nil {
		t.Fatalf("expected book folder: %v", err)
	}

	events := rec.Events()
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	if events[0].AuthorFolder != levels.Author || events[0].BookFolder != levels.Book || events[0].TrackFolder != "" {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if observer[watch.LevelAuthor] != 1 || observer[watch.LevelBook] != 1 {
		t.Fatalf("unexpected observer counts %v", observer)
	}

	announcements := rec.Announcements()
	if len(announcements) != 1 || len(announcements[0]) != 3 {
		t.Fatalf("expected one announcement of three paths, got %v", announcements)
	}
}

func TestEnsureExistingFoldersEmitsNothing(t *testing.T) {
	root := t.TempDir()
	book := filepath.Join(root, "Author", "Book")
	if err := os.MkdirAll(book, 0o755); err != nil {
		t.Fatal(err)
	}
	rec := &watch.Recorder{}
	m := New(newDisk(), rec, nil)

	record, err := m.Ensure(context.Background(), Levels{Author: filepath.Join(root, "Author"), Book: book, Track: book})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if record.Changed() {
		t.Fatalf("expected nothing created, got %+v", record)
	}
	if len(rec.Events()) != 0 {
		t.Fatalf("expected no events, got %v", rec.Events())
	}
	if len(rec.Announcements()) != 1 {
		t.Fatal("expected paths to be announced even when nothing is created")
	}
}

func TestEnsureTrackFolderOnly(t *testing.T) {
	root := t.TempDir()
	author := filepath.Join(root, "Author")
	book := filepath.Join(author, "Book")
	track := filepath.Join(book, "Disc 1")
	if err := os.MkdirAll(book, 0o755); err != nil {
		t.Fatal(err)
	}
	rec := &watch.Recorder{}
	record, err := New(newDisk(), rec, nil).Ensure(context.Background(), Levels{Author: author, Book: book, Track: track})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if record.Author || record.Book || !record.Track {
		t.Fatalf("unexpected record %+v", record)
	}
	events := rec.Events()
	if len(events) != 1 || events[0].TrackFolder != track || events[0].AuthorFolder != "" || events[0].BookFolder != "" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestEnsureMissingRootIsFatal(t *testing.T) {
	root := filepath.Join(t.TempDir(), "library")
	d := newDisk()
	rec := &watch.Recorder{}
	levels := Levels{
		Author: filepath.Join(root, "Author"),
		Book:   filepath.Join(root, "Author", "Book"),
		Track:  filepath.Join(root, "Author", "Book"),
	}

	_, err := New(d, rec, nil).Ensure(context.Background(), levels)
	if !errors.Is(err, ErrRootFolderMissing) {
		t.Fatalf("expected ErrRootFolderMissing, got %v", err)
	}
	if len(d.created) != 0 {
		t.Fatalf("expected no folders created, got %v", d.created)
	}
	if _, statErr := os.Stat(root); !os.IsNotExist(statErr) {
		t.Fatal("root folder must never be created")
	}
	if len(rec.Events()) != 0 {
		t.Fatal("expected no events")
	}
}

func TestEnsureCreationFailureIsNotFatal(t *testing.T) {
	root := t.TempDir()
	author := filepath.Join(root, "Author")
	book := filepath.Join(author, "Book")
	d := newDisk()
	d.failOn[book] = true
	rec := &watch.Recorder{}

	record, err := New(d, rec, nil).Ensure(context.Background(), Levels{Author: author, Book: book, Track: book})
	if err != nil {
		t.Fatalf("expected creation failure to be tolerated, got %v", err)
	}
	if !record.Author || record.Book {
		t.Fatalf("failed level must not be marked created: %+v", record)
	}
	events := rec.Events()
	if len(events) != 1 || events[0].BookFolder != "" || events[0].AuthorFolder != author {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestEnsureCreatesIntermediateAncestors(t *testing.T) {
	root := t.TempDir()
	author := filepath.Join(root, "Author")
	book := filepath.Join(author, "Series", "Book")
	d := newDisk()

	record, err := New(d, nil, nil).Ensure(context.Background(), Levels{Author: author, Book: book, Track: book})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if !record.Author || !record.Book {
		t.Fatalf("unexpected record %+v", record)
	}
	want := []string{author, filepath.Join(author, "Series"), book}
	if len(d.created) != len(want) {
		t.Fatalf("unexpected creation order %v", d.created)
	}
	for i := range want {
		if d.created[i] != want[i] {
			t.Fatalf("creation order %v, want %v", d.created, want)
		}
	}
}
