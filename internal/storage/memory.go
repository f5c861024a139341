package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryThrottleStore keeps throttle state in process. A single mutex covers
// the whole read-modify-write so concurrent claims on a key cannot both win.
type MemoryThrottleStore struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
	windows  map[string]time.Duration
}

// Ensure MemoryThrottleStore implements ThrottleStore
var _ ThrottleStore = (*MemoryThrottleStore)(nil)

// NewMemoryThrottleStore creates an empty in-memory throttle store
func NewMemoryThrottleStore() *MemoryThrottleStore {
	return &MemoryThrottleStore{
		lastSent: make(map[string]time.Time),
		windows:  make(map[string]time.Duration),
	}
}

// Claim records now for key unless the last claim is still inside window
func (s *MemoryThrottleStore) Claim(_ context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastSent[key]; ok && now.Sub(last) < window {
		return false, nil
	}

	s.lastSent[key] = now
	s.windows[key] = window
	return true, nil
}

// LastSent returns the last claim time recorded for key
func (s *MemoryThrottleStore) LastSent(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.lastSent[key]
	return last, ok, nil
}

// Prune drops keys whose window has elapsed at now and returns how many were removed
func (s *MemoryThrottleStore) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, last := range s.lastSent {
		if now.Sub(last) >= s.windows[key] {
			delete(s.lastSent, key)
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}
