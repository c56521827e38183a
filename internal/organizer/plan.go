package organizer

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"shelver/internal/library"
)

// DefaultMaxPathLength is the legacy path ceiling destinations are shortened to.
const DefaultMaxPathLength = 260

// Plan is the destination computed for one operation.
type Plan struct {
	FileName  string
	Path      string
	Truncated bool
}

func (s *Service) plan(author library.Author, edition library.Edition, file library.ManagedFile, extension string) Plan {
	name := s.paths.BuildFileName(author, edition, file)
	return Plan{FileName: name, Path: s.paths.BuildFilePath(author, edition, name, extension)}
}

// shorten trims the last component of the file name by the number of runes
// the destination exceeds limit by.
func (s *Service) shorten(plan Plan, author library.Author, edition library.Edition, extension string, limit int) (Plan, error) {
	overflow := utf8.RuneCountInString(plan.Path) - limit
	if overflow <= 0 {
		return plan, nil
	}

	dir, base := filepath.Split(plan.FileName)
	runes := []rune(base)
	if overflow >= len(runes) {
		return Plan{}, fmt.Errorf("destination is %d characters over the %d limit and the file name has only %d", overflow, limit, len(runes))
	}
	truncated := strings.TrimRight(string(runes[:len(runes)-overflow]), ". ")
	if truncated == "" {
		return Plan{}, fmt.Errorf("file name %q cannot be shortened by %d characters", base, overflow)
	}

	name := dir + truncated
	return Plan{
		FileName:  name,
		Path:      s.paths.BuildFilePath(author, edition, name, extension),
		Truncated: true,
	}, nil
}
