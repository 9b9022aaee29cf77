package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorStore persists embedded chunks and serves similarity search.
// All backends rank by cosine similarity.
type VectorStore interface {
	// Upsert inserts or replaces records by ID. Each record is replaced atomically.
	Upsert(ctx context.Context, records []domain.VectorRecord) error

	// Query returns at most topK records ordered as domain.RankRecords orders them.
	Query(ctx context.Context, vector []float32, topK int, filter domain.Filter) ([]domain.ScoredRecord, error)

	// Delete removes every record of a document.
	Delete(ctx context.Context, documentID string) error

	// DeleteFrom removes the records of a document whose sequence index is >= fromIndex.
	DeleteFrom(ctx context.Context, documentID string, fromIndex int) error

	// Close releases resources.
	Close() error
}
