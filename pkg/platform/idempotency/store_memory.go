package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the single-process implementation used in tests and
// deployments without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if entry, ok := s.entries[key]; ok && entry.expiresAt.After(now) {
		if entry.value == pending {
			return Reservation{Outcome: InFlight}, nil
		}
		return Reservation{Outcome: Replayed, RecordID: entry.value}, nil
	}
	s.entries[key] = memoryEntry{value: pending, expiresAt: now.Add(ttl)}
	return Reservation{Outcome: Reserved}, nil
}

func (s *MemoryStore) Complete(_ context.Context, key, recordID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: recordID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
