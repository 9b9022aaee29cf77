package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// QueryService answers natural-language questions from indexed content.
type QueryService interface {
	// Answer retrieves the topK most relevant passages and synthesises an answer.
	Answer(ctx context.Context, query string, topK int) (*domain.Answer, error)
}
