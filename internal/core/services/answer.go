package services

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure QueryEngine implements the interface.
var _ driving.QueryService = (*QueryEngine)(nil)

// DefaultTopK is the number of passages retrieved when the caller does not choose.
const DefaultTopK = 5

// QueryEngine answers questions by retrieving passages and synthesising
// an answer from them.
type QueryEngine struct {
	retriever   *Retriever
	synthesizer *Synthesizer
}

// NewQueryEngine creates a query engine.
func NewQueryEngine(retriever *Retriever, synthesizer *Synthesizer) *QueryEngine {
	return &QueryEngine{retriever: retriever, synthesizer: synthesizer}
}

// Answer retrieves the topK passages for query and synthesises an answer.
// Retrieval errors (including domain.ErrNotInitialized) and LLM errors are
// returned with their kind intact.
func (q *QueryEngine) Answer(ctx context.Context, query string, topK int) (*domain.Answer, error) {
	passages, err := q.retriever.Retrieve(ctx, query, topK, nil)
	if err != nil {
		return nil, err
	}

	answer, err := q.synthesizer.Synthesize(ctx, query, passages)
	if err != nil {
		return nil, err
	}
	logger.Debug("Answered from %d passage(s)", len(answer.Passages))
	return answer, nil
}
