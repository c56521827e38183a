// Package filedate keeps file and folder timestamps in step with library metadata.
package filedate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"shelver/internal/library"
)

// Policy selects which timestamp organized files receive.
type Policy string

const (
	// PolicyNone leaves file timestamps untouched.
	PolicyNone Policy = "none"
	// PolicyReleaseDate stamps files with the book's release date.
	PolicyReleaseDate Policy = "release_date"
)

// ParsePolicy maps a config value to a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyNone:
		return PolicyNone, nil
	case PolicyReleaseDate:
		return PolicyReleaseDate, nil
	}
	return "", fmt.Errorf("unknown file date policy %q", value)
}

// Syncer applies the timestamp policy after a transfer.
type Syncer struct {
	policy Policy
	now    func() time.Time
	chtime func(name string, atime, mtime time.Time) error
}

// NewSyncer constructs a Syncer.
func NewSyncer(policy Policy) *Syncer {
	return &Syncer{policy: policy, now: time.Now, chtime: os.Chtimes}
}

// SyncTimestamps stamps file according to the policy and marks the author
// folder as modified now so library scanners notice the change.
func (s *Syncer) SyncTimestamps(_ context.Context, file library.ManagedFile, author library.Author, book library.Book) error {
	var errs []error
	if s.policy == PolicyReleaseDate && !book.ReleaseDate.IsZero() {
		if err := s.chtime(file.Path, book.ReleaseDate, book.ReleaseDate); err != nil {
			errs = append(errs, fmt.Errorf("set file date: %w", err))
		}
	}
	if strings.TrimSpace(author.Path) != "" {
		now := s.now()
		if err := s.chtime(author.Path, now, now); err != nil {
			errs = append(errs, fmt.Errorf("set author folder date: %w", err))
		}
	}
	return errors.Join(errs...)
}
