package memory

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Queries are an exact brute-force cosine scan.
type VectorStore struct {
	mu      sync.RWMutex
	records map[string]map[int]domain.VectorRecord // document ID -> sequence index -> record
	dims    int
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		records: make(map[string]map[int]domain.VectorRecord),
	}
}

// Upsert stores or replaces records by ID.
func (s *VectorStore) Upsert(_ context.Context, records []domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if s.dims == 0 {
			s.dims = len(r.Vector)
		}
		if len(r.Vector) != s.dims {
			return fmt.Errorf("%w: record %s has dimension %d, store holds %d: %w",
				domain.ErrVectorStore, r.ID, len(r.Vector), s.dims, domain.ErrDimensionMismatch)
		}
	}

	for _, r := range records {
		doc, ok := s.records[r.DocumentID]
		if !ok {
			doc = make(map[int]domain.VectorRecord)
			s.records[r.DocumentID] = doc
		}
		doc[r.SequenceIndex] = copyRecord(r)
	}
	return nil
}

// Query returns the topK most similar records that match filter.
func (s *VectorStore) Query(_ context.Context, vector []float32, topK int, filter domain.Filter) ([]domain.ScoredRecord, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dims != 0 && len(vector) != s.dims {
		return nil, fmt.Errorf("%w: query has dimension %d, store holds %d: %w",
			domain.ErrVectorStore, len(vector), s.dims, domain.ErrDimensionMismatch)
	}

	var results []domain.ScoredRecord
	for _, doc := range s.records {
		for _, r := range doc {
			if !filter.Matches(r) {
				continue
			}
			results = append(results, domain.ScoredRecord{
				Record: copyRecord(r),
				Score:  cosine(vector, r.Vector),
			})
		}
	}
	return domain.RankRecords(results, topK), nil
}

// Delete removes every record of a document.
func (s *VectorStore) Delete(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, documentID)
	return nil
}

// DeleteFrom removes the records of a document at or after fromIndex.
func (s *VectorStore) DeleteFrom(_ context.Context, documentID string, fromIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.records[documentID]
	if !ok {
		return nil
	}
	for idx := range doc {
		if idx >= fromIndex {
			delete(doc, idx)
		}
	}
	if len(doc) == 0 {
		delete(s.records, documentID)
	}
	return nil
}

// Count returns the number of records held for a document, or for all
// documents when documentID is empty.
func (s *VectorStore) Count(documentID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if documentID != "" {
		return len(s.records[documentID])
	}
	n := 0
	for _, doc := range s.records {
		n += len(doc)
	}
	return n
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}

func copyRecord(r domain.VectorRecord) domain.VectorRecord {
	r.Vector = append([]float32(nil), r.Vector...)
	if r.Metadata != nil {
		meta := make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			meta[k] = v
		}
		r.Metadata = meta
	}
	return r
}

// cosine returns the cosine similarity of a and b, or 0 if either is a zero vector.
func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
