package usage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type usageKey struct {
	userID uuid.UUID
	day    string
}

// MemoryCounterStore is an in-memory CounterStore for tests and local
// development. Increments are atomic under the store mutex.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[usageKey]*DailyUsage
}

// NewMemoryCounterStore creates an empty in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{counters: make(map[usageKey]*DailyUsage)}
}

// Get implements CounterStore.
func (s *MemoryCounterStore) Get(_ context.Context, userID uuid.UUID, day string) (*DailyUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.counters[usageKey{userID: userID, day: day}]
	if !ok {
		return nil, ErrUsageNotFound
	}
	cp := *u
	return &cp, nil
}

// Increment implements CounterStore.
func (s *MemoryCounterStore) Increment(_ context.Context, userID uuid.UUID, day string, upload bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := usageKey{userID: userID, day: day}
	u, ok := s.counters[key]
	if !ok {
		u = &DailyUsage{UserID: userID, Day: day}
		s.counters[key] = u
	}
	u.Messages++
	if upload {
		u.Uploads++
	}
	return nil
}
