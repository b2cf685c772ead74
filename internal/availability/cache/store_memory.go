package cache

import (
	"context"
	"sync"
	"time"

	"domainscout/internal/availability"
)

// MemoryStore is an in-memory freshness cache for tests and single-process
// deployments without Redis.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	clock   func() time.Time
}

type memoryEntry struct {
	rec       availability.Record
	expiresAt time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemoryStore constructs an empty in-memory cache.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, domain string) (availability.Record, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[domain]
	s.mu.RUnlock()
	if !ok || s.clock().After(entry.expiresAt) {
		return availability.Record{}, false, nil
	}
	return entry.rec, true, nil
}

func (s *MemoryStore) Set(_ context.Context, domain string, rec availability.Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[domain] = memoryEntry{rec: rec, expiresAt: s.clock().Add(ttl)}
	return nil
}

// Len reports the number of entries, expired or not. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
