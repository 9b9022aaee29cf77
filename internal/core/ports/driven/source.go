package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DocumentSource is the external file source documents are ingested from.
type DocumentSource interface {
	// Name identifies the source type for logging.
	Name() string

	// Fetch downloads a document. Missing documents wrap domain.ErrNotFound;
	// temporary outages are marked with domain.Transient.
	Fetch(ctx context.Context, id string) (*domain.Document, error)

	// List returns the documents matching filter.
	List(ctx context.Context, filter domain.SourceFilter) ([]domain.DocumentRef, error)
}

// IDCanonicaliser is implemented by sources that accept several spellings
// of the same document ID. Ingestion keys locks and records on the
// canonical form.
type IDCanonicaliser interface {
	CanonicalID(id string) (string, error)
}
