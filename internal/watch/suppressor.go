package watch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Suppressor remembers announced paths so watcher events they cause can be
// recognized as self-inflicted.
type Suppressor struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	expiry map[string]time.Time
}

// NewSuppressor keeps announcements for ttl.
func NewSuppressor(ttl time.Duration) *Suppressor {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Suppressor{ttl: ttl, now: time.Now, expiry: make(map[string]time.Time)}
}

// SetClock replaces the time source. Intended for tests.
func (s *Suppressor) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Suppressor) ReportChangeBeginning(paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until := s.now().Add(s.ttl)
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		s.expiry[filepath.Clean(p)] = until
	}
}

func (s *Suppressor) FolderStructureCreated(context.Context, FolderCreatedEvent) error {
	return nil
}

// Suppressed reports whether path is at or below a path announced within the window.
func (s *Suppressor) Suppressed(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	path = filepath.Clean(path)
	hit := false
	for announced, until := range s.expiry {
		if now.After(until) {
			delete(s.expiry, announced)
			continue
		}
		if path == announced || strings.HasPrefix(path, announced+string(filepath.Separator)) {
			hit = true
		}
	}
	return hit
}

// Len returns the number of live announcements.
func (s *Suppressor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for _, until := range s.expiry {
		if !now.After(until) {
			n++
		}
	}
	return n
}
