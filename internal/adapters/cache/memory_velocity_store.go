package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryVelocityStore is the single-process fallback for the click-velocity
// counter. Counts reset when the process restarts, which is acceptable for
// local runs and tests.
type MemoryVelocityStore struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	nowFn   func() time.Time
}

func NewMemoryVelocityStore() *MemoryVelocityStore {
	return &MemoryVelocityStore{
		buckets: make(map[string][]time.Time),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryVelocityStore) IncrementAndCount(_ context.Context, clientIP, relationshipID string, window time.Duration) (int, error) {
	if window <= 0 {
		window = time.Minute
	}
	now := s.nowFn()
	cutoff := now.Add(-window)
	key := relationshipID + "|" + clientIP

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.buckets[key][:0]
	for _, t := range s.buckets[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	s.buckets[key] = kept
	return len(kept), nil
}
