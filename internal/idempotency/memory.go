package idempotency

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process. Only for tests and single-instance
// development setups.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]string)}
}

func (s *MemoryStore) Record(_ context.Context, transactionID, outcome string) (string, bool, error) {
	if transactionID == "" {
		return "", false, ErrEmptyTransactionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.records[transactionID]; ok {
		return stored, false, nil
	}
	s.records[transactionID] = outcome
	return outcome, true, nil
}

func (s *MemoryStore) Upgrade(_ context.Context, transactionID, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[transactionID] != from {
		return false, nil
	}
	s.records[transactionID] = to
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, transactionID string) error {
	s.mu.Lock()
	delete(s.records, transactionID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
