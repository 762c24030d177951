package cache

import (
	"context"
	"sync"
	"time"
)

// memoryEntry is one stored value with its expiry bound.
type memoryEntry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
}

// MemoryStore is an in-process Store used when no Redis address is
// configured, and in tests. Expired entries are evicted lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// now is swappable for tests.
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the value for key unless it is absent or expired.
// Entries expire strictly at storedAt+ttl and are never served stale.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if s.now().Sub(entry.storedAt) >= entry.ttl {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set overwrites key with value. Writes are idempotent by key.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{
		value:    value,
		storedAt: s.now(),
		ttl:      ttl,
	}
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
