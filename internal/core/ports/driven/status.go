package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// StatusStore persists the index-initialised flag across process restarts.
type StatusStore interface {
	// GetFlag returns the stored flag, or false if it was never set.
	GetFlag(ctx context.Context) (bool, error)

	// SetFlag stores the flag.
	SetFlag(ctx context.Context, value bool) error
}

// OutcomeStore keeps a history of ingestion outcomes.
type OutcomeStore interface {
	// Record appends an outcome.
	Record(ctx context.Context, outcome domain.IngestOutcome) error

	// Recent returns the latest records, newest first.
	Recent(ctx context.Context, limit int) ([]domain.IngestRecord, error)
}
