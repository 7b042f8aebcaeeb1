package guard

import (
	"context"
	"sync"

	"github.com/fortuna/tradedesk/internal/store"
)

// MemoryStore is an in-process Store for tests and single-node runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Insert adds rec, or returns store.ErrDuplicateKey if its id exists.
func (s *MemoryStore) Insert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ExternalID]; exists {
		return store.ErrDuplicateKey
	}
	s.records[rec.ExternalID] = rec
	return nil
}

// Get returns the record for externalID.
func (s *MemoryStore) Get(_ context.Context, externalID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[externalID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rec, nil
}

// Delete removes the record for externalID if present.
func (s *MemoryStore) Delete(_ context.Context, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, externalID)
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
