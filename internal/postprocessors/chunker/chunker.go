// Package chunker splits normalised text into fixed-size, overlapping chunks.
//
// The unit is the Unicode code point (rune). A window of Size runes advances
// by Size-Overlap runes; the last window may be shorter. Chunking stops as
// soon as a window reaches the end of the text, so no chunk lies entirely
// inside the previous chunk's overlap.
package chunker

import (
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of runes shared by consecutive chunks.
const DefaultChunkOverlap = 200

// Chunker is a sliding-window chunker. It holds no mutable state and is
// safe for concurrent use.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. It fails with domain.ErrInvalidConfig unless
// size > 0 and 0 <= overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if err := (domain.ChunkingSettings{Size: size, Overlap: overlap}).Validate(); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// FromSettings creates a chunker from chunking settings.
func FromSettings(s domain.ChunkingSettings) (*Chunker, error) {
	return New(s.Size, s.Overlap)
}

// Size returns the window size in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the overlap in runes.
func (c *Chunker) Overlap() int { return c.overlap }

// String describes the configuration.
func (c *Chunker) String() string {
	return fmt.Sprintf("chunker(size=%d, overlap=%d)", c.size, c.overlap)
}

// Chunk splits text into ordered chunks. Start and End are rune offsets.
func (c *Chunker) Chunk(documentID, text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	// Invalid UTF-8 bytes decode to U+FFFD.
	runes := []rune(text)
	n := len(runes)
	step := c.size - c.overlap

	chunks := make([]domain.Chunk, 0, n/step+1)
	for start := 0; ; start += step {
		end := start + c.size
		if end > n {
			end = n
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID:    documentID,
			SequenceIndex: len(chunks),
			Text:          string(runes[start:end]),
			Start:         start,
			End:           end,
		})
		if end == n {
			break
		}
	}
	return chunks
}
