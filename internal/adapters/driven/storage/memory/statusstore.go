package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure the stores implement their interfaces.
var (
	_ driven.StatusStore  = (*StatusStore)(nil)
	_ driven.OutcomeStore = (*OutcomeStore)(nil)
)

// StatusStore is an in-memory implementation of driven.StatusStore.
// The flag does not survive the process.
type StatusStore struct {
	mu   sync.RWMutex
	flag bool
}

// NewStatusStore creates a new in-memory status store.
func NewStatusStore() *StatusStore {
	return &StatusStore{}
}

// GetFlag returns the stored flag.
func (s *StatusStore) GetFlag(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flag, nil
}

// SetFlag stores the flag.
func (s *StatusStore) SetFlag(_ context.Context, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flag = value
	return nil
}

// OutcomeStore is an in-memory implementation of driven.OutcomeStore.
type OutcomeStore struct {
	mu      sync.RWMutex
	records []domain.IngestRecord
}

// NewOutcomeStore creates a new in-memory outcome store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{}
}

// Record appends an outcome.
func (s *OutcomeStore) Record(_ context.Context, outcome domain.IngestOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, domain.RecordOf(outcome))
	return nil
}

// Recent returns up to limit records, newest first. A non-positive limit returns all.
func (s *OutcomeStore) Recent(_ context.Context, limit int) ([]domain.IngestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.IngestRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}
