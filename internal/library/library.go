package library

import (
	"path/filepath"
	"strings"
	"time"
)

// ManagedFile is one physical file under management.
type ManagedFile struct {
	ID        int64
	EditionID int64
	Path      string
	Size      int64
	DateAdded time.Time
	// Modified is the last-known-good modification time recorded for the file.
	Modified  time.Time
	Part      int
	PartCount int
}

// WithPath returns a copy of f relocated to path.
func (f ManagedFile) WithPath(path string) ManagedFile {
	f.Path = path
	return f
}

// Extension returns the file extension including the leading dot.
func (f ManagedFile) Extension() string {
	return filepath.Ext(f.Path)
}

// IsZero reports whether f is the zero record returned on failure.
func (f ManagedFile) IsZero() bool {
	return f.ID == 0 && f.Path == ""
}

// Author is the top-level library entity. Path is the author folder; the
// library root is its parent.
type Author struct {
	ID       int64
	Name     string
	SortName string
	Path     string
}

// RootFolder returns the library root the author folder lives in.
func (a Author) RootFolder() string {
	if strings.TrimSpace(a.Path) == "" {
		return ""
	}
	return filepath.Dir(filepath.Clean(a.Path))
}

// Book is the abstract work an edition belongs to.
type Book struct {
	ID             int64
	Title          string
	ReleaseDate    time.Time
	Series         string
	SeriesPosition string
}

// ReleaseYear returns the four-digit release year or an empty string when unknown.
func (b Book) ReleaseYear() string {
	if b.ReleaseDate.IsZero() {
		return ""
	}
	return b.ReleaseDate.Format("2006")
}

// Edition is a specific published version of a book.
type Edition struct {
	ID     int64
	Title  string
	Book   Book
	Format string
	ISBN   string
}

// ImportContext carries the metadata resolved for a newly discovered file.
type ImportContext struct {
	Author     Author
	Edition    Edition
	SourcePath string
}

// Extension returns the extension of the discovered source file.
func (c ImportContext) Extension() string {
	return filepath.Ext(c.SourcePath)
}
