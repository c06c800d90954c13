package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps counters in process memory. Limits are per process: a
// restart clears them and replicas do not share them. Use SQLStore when more
// than one instance serves the endpoint.
type MemoryStore struct {
	policy  Policy
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*entry
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(policy Policy, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		policy:  policy.withDefaults(),
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit counts one attempt for key
func (s *MemoryStore) Hit(_ context.Context, key string) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	decision := s.hitLocked(key, now)

	// Entries are only reclaimed here, there is no timer.
	if len(s.entries) > s.policy.HighWater {
		s.sweepLocked(now)
	}

	return decision, nil
}

func (s *MemoryStore) hitLocked(key string, now time.Time) Decision {
	e, ok := s.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(s.policy.Window)}
		s.entries[key] = e
		return Decision{Allowed: true, Count: e.count, ResetAt: e.resetAt}
	}

	if e.count >= s.policy.Limit {
		return Decision{Allowed: false, Count: e.count, ResetAt: e.resetAt}
	}

	e.count++
	return Decision{Allowed: true, Count: e.count, ResetAt: e.resetAt}
}

// SweepExpired removes every entry whose window has ended
func (s *MemoryStore) SweepExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now()), nil
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
