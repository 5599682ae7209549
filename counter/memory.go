package counter

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// MemoryStore is a process-local [Store]. Counters are not shared between processes,
// so it only fits single-instance deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
	sweepAt time.Time
}

// NewMemoryStore creates an empty [MemoryStore]. A nil clock defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     now,
	}
}

// Increment implements [Store].
func (s *MemoryStore) Increment(ctx context.Context, key string, window time.Duration) (Window, error) {
	if err := ctx.Err(); err != nil {
		return Window{}, err
	}
	if window <= 0 {
		return Window{}, errors.New("counter window must be > 0")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now, window)

	e, ok := s.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = &memoryEntry{expiresAt: now.Add(window)}
		s.entries[key] = e
	}
	e.count++

	return Window{Count: e.count, TTL: e.expiresAt.Sub(now)}, nil
}

// Len reports how many counters are currently held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// sweep drops expired entries at most once per window; caller holds mu.
func (s *MemoryStore) sweep(now time.Time, window time.Duration) {
	if now.Before(s.sweepAt) {
		return
	}
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.sweepAt = now.Add(window)
}
