package tags

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"shelver/internal/library"
)

// UnknownAuthor is used when neither tags nor layout name an author.
const UnknownAuthor = "Unknown Author"

// Metadata holds the fields shelver cares about for one file.
type Metadata struct {
	Author     string
	Title      string
	Year       int
	Part       int
	PartCount  int
	Format     string
	FromLayout bool
}

// Reader extracts metadata for a file.
type Reader interface {
	Read(ctx context.Context, path string) (Metadata, error)
}

// ErrNoTags reports a file without readable embedded tags.
var ErrNoTags = errors.New("no readable tags")

// FileReader reads embedded tags from audio files.
type FileReader struct{}

// NewFileReader returns a tag reader backed by dhowden/tag.
func NewFileReader() *FileReader {
	return &FileReader{}
}

// Read opens path and parses its tags.
func (r *FileReader) Read(_ context.Context, path string) (Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	parsed, err := tag.ReadFrom(file)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrNoTags, err)
	}

	author := strings.TrimSpace(parsed.AlbumArtist())
	if author == "" {
		author = strings.TrimSpace(parsed.Artist())
	}
	title := strings.TrimSpace(parsed.Album())
	if title == "" {
		title = strings.TrimSpace(parsed.Title())
	}
	if author == "" && title == "" {
		return Metadata{}, ErrNoTags
	}

	part, partCount := parsed.Track()
	if partCount <= 1 {
		if disc, discs := parsed.Disc(); discs > 1 {
			part, partCount = disc, discs
		}
	}

	return Metadata{
		Author:    author,
		Title:     title,
		Year:      parsed.Year(),
		Part:      part,
		PartCount: partCount,
		Format:    strings.ToLower(string(parsed.FileType())),
	}, nil
}

// FromLayout derives metadata from the file's position under inboxRoot.
func FromLayout(inboxRoot, path string) Metadata {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	meta := Metadata{
		Author:     UnknownAuthor,
		Title:      stem,
		Format:     strings.TrimPrefix(strings.ToLower(filepath.Ext(base)), "."),
		FromLayout: true,
	}

	rel, err := filepath.Rel(inboxRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return meta
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	switch {
	case len(parts) >= 3:
		meta.Author = parts[0]
		meta.Title = parts[1]
	case len(parts) == 2:
		meta.Author = parts[0]
	}
	return meta
}

// Resolve reads tags through reader and falls back to the inbox layout for
// missing fields.
func Resolve(ctx context.Context, reader Reader, inboxRoot, path string) Metadata {
	layout := FromLayout(inboxRoot, path)
	if reader == nil {
		return layout
	}
	meta, err := reader.Read(ctx, path)
	if err != nil {
		return layout
	}
	if meta.Author == "" {
		meta.Author = layout.Author
	}
	if meta.Title == "" {
		meta.Title = layout.Title
	}
	if meta.Format == "" {
		meta.Format = layout.Format
	}
	return meta
}

// LibraryAuthor returns the library author for m. The folder path is left for the
// caller to resolve against the library root.
func (m Metadata) LibraryAuthor() library.Author {
	return library.Author{Name: m.Author, SortName: sortName(m.Author)}
}

// Edition returns the edition described by m.
func (m Metadata) Edition() library.Edition {
	book := library.Book{Title: m.Title}
	if m.Year > 0 {
		book.ReleaseDate = time.Date(m.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return library.Edition{Title: m.Title, Book: book, Format: m.Format}
}

// File returns an unsaved managed file for path.
func (m Metadata) File(path string, size int64) library.ManagedFile {
	file := library.ManagedFile{Path: path, Size: size}
	if m.PartCount > 1 {
		file.Part = m.Part
		file.PartCount = m.PartCount
	}
	return file
}

// sortName turns "First Last" into "Last, First".
func sortName(name string) string {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return name
	}
	last := fields[len(fields)-1]
	return last + ", " + strings.Join(fields[:len(fields)-1], " ")
}
