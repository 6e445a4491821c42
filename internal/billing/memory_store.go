package billing

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryPlanStore is an in-memory PlanStore for tests and local
// development.
type MemoryPlanStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
}

// NewMemoryPlanStore creates an empty in-memory plan store.
func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{records: make(map[uuid.UUID]Record)}
}

// Get implements PlanStore.
func (s *MemoryPlanStore) Get(_ context.Context, userID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	cp := rec
	return &cp, nil
}

// Upsert implements PlanStore.
func (s *MemoryPlanStore) Upsert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.UserID] = *rec
	return nil
}
