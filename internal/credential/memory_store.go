package credential

import (
	"context"
	"sync"
)

// MemoryStore keeps the latest record in a single process-lifetime slot.
// The mutex protects the slot itself; it does not serialize the manager's
// read-check-refresh-write sequence.
type MemoryStore struct {
	mu  sync.RWMutex
	rec *Record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store. main builds exactly one and shares it.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.rec == nil {
		return nil, nil
	}
	rec := *s.rec
	return &rec, nil
}

func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	return nil
}
