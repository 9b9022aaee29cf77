package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/retry"
)

// Retriever finds the passages most similar to a query.
// It is read-only and safe for concurrent use.
type Retriever struct {
	embedder *Embedder
	store    driven.VectorStore
	status   *StatusTracker
	policy   retry.Policy
}

// NewRetriever creates a retriever. policy governs vector store queries.
func NewRetriever(embedder *Embedder, store driven.VectorStore, status *StatusTracker, policy retry.Policy) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
		status:   status,
		policy:   policy,
	}
}

// Retrieve returns up to topK passages for query, most similar first.
// It fails with domain.ErrNotInitialized before embedding anything when the
// index has never been populated.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, filter domain.Filter) ([]domain.Passage, error) {
	ready, err := r.status.Initialized(ctx)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, fmt.Errorf("%w: run ingestion before querying", domain.ErrNotInitialized)
	}

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidArgument)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	var results []domain.ScoredRecord
	err = r.policy.Do(ctx, "query", func(ctx context.Context) error {
		var err error
		results, err = r.store.Query(ctx, vector, topK, filter)
		return err
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, domain.ErrVectorStore) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: query: %w", domain.ErrVectorStore, err)
	}

	passages := make([]domain.Passage, len(results))
	for i, res := range results {
		passages[i] = domain.PassageFromRecord(res)
	}
	logger.Debug("Retrieved %d passage(s) for query", len(passages))
	return passages, nil
}
