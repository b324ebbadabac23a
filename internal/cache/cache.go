// Package cache keeps the last fetched copy of each dataset for a TTL.
package cache

import (
	"sync"
	"time"

	"github.com/rpggio/statusboard/internal/sheet"
)

type entry struct {
	table     sheet.Table
	fetchedAt time.Time
}

// State maps dataset names to their last fetched table. Each dataset keeps
// its own timestamp, so refreshing one never extends another's lifetime.
type State struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

// Option configures a State.
type Option func(*State)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		s.now = now
	}
}

// New creates an empty cache.
func New(ttl time.Duration, opts ...Option) *State {
	s := &State{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the freshness window.
func (s *State) TTL() time.Duration {
	return s.ttl
}

// Get returns the cached table only while it is younger than the TTL.
func (s *State) Get(name string) (sheet.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok || s.now().Sub(e.fetchedAt) >= s.ttl {
		return sheet.Table{}, false
	}
	return e.table.Clone(), true
}

// Stale returns the cached table regardless of age.
func (s *State) Stale(name string) (sheet.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return sheet.Table{}, false
	}
	return e.table.Clone(), true
}

// Put stores a copy of table and stamps it with the current time.
func (s *State) Put(name string, table sheet.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = entry{table: table.Clone(), fetchedAt: s.now()}
}

// Invalidate expires name without dropping it, so it stays available as a
// stale fallback.
func (s *State) Invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[name]; ok {
		e.fetchedAt = time.Time{}
		s.entries[name] = e
	}
}

// InvalidateAll expires every dataset.
func (s *State) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, e := range s.entries {
		e.fetchedAt = time.Time{}
		s.entries[name] = e
	}
}

// FetchedAt reports when name was last stored.
func (s *State) FetchedAt(name string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok || e.fetchedAt.IsZero() {
		return time.Time{}, false
	}
	return e.fetchedAt, true
}
