package library

import (
	"testing"
	"time"
)

func TestWithPathLeavesOriginalUntouched(t *testing.T) {
	original := ManagedFile{ID: 7, Path: "/lib/Old/book.m4b", Size: 12}
	moved := original.WithPath("/lib/New/Book (2020)/book.m4b")

	if original.Path != "/lib/Old/book.m4b" {
		t.Fatalf("original mutated: %q", original.Path)
	}
	if moved.Path != "/lib/New/Book (2020)/book.m4b" || moved.ID != 7 || moved.Size != 12 {
		t.Fatalf("unexpected relocated record: %+v", moved)
	}
	if moved.Extension() != ".m4b" {
		t.Fatalf("unexpected extension %q", moved.Extension())
	}
}

func TestAuthorRootFolder(t *testing.T) {
	cases := map[string]string{
		"/library/Author":  "/library",
		"/library/Author/": "/library",
		"":                 "",
	}
	for path, want := range cases {
		if got := (Author{Path: path}).RootFolder(); got != want {
			t.Fatalf("RootFolder(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestReleaseYear(t *testing.T) {
	if got := (Book{}).ReleaseYear(); got != "" {
		t.Fatalf("expected empty year, got %q", got)
	}
	book := Book{ReleaseDate: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)}
	if got := book.ReleaseYear(); got != "2020" {
		t.Fatalf("unexpected year %q", got)
	}
}

func TestZeroRecord(t *testing.T) {
	if !(ManagedFile{}).IsZero() {
		t.Fatal("expected zero record")
	}
	if (ManagedFile{Path: "/x"}).IsZero() {
		t.Fatal("expected non-zero record")
	}
}
