package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IngestionService loads documents from the source into the vector store.
type IngestionService interface {
	// IngestDocument ingests one document and returns its failure reason as the error.
	IngestDocument(ctx context.Context, ref domain.DocumentRef) (domain.IngestOutcome, error)

	// IngestBatch ingests documents concurrently. Failures are isolated per
	// document and reported in the outcome list, in input order.
	IngestBatch(ctx context.Context, refs []domain.DocumentRef) []domain.IngestOutcome

	// IngestAll lists the source with filter and ingests every match.
	// Only the listing itself can return an error.
	IngestAll(ctx context.Context, filter domain.SourceFilter) ([]domain.IngestOutcome, error)

	// Initialize ingests every document the source lists.
	Initialize(ctx context.Context) ([]domain.IngestOutcome, error)
}
