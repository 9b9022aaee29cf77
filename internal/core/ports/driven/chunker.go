package driven

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// Chunker splits normalised text into ordered, overlapping chunks.
// Identical text always yields identical chunk boundaries.
type Chunker interface {
	// Chunk returns the chunks of text. Empty text yields no chunks.
	Chunk(documentID, text string) []domain.Chunk
}
