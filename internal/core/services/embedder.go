package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/retry"
)

// Embedder wraps an EmbeddingProvider with batching, retries, a global
// ceiling on in-flight batches and a vector dimension check.
// One Embedder is shared by every document in a process.
type Embedder struct {
	provider  driven.EmbeddingProvider
	policy    retry.Policy
	batchSize int
	sem       *semaphore.Weighted

	mu   sync.Mutex
	dims int // 0 until configured or learned
}

// NewEmbedder creates an embedder. Batch size and concurrency below 1 are
// treated as 1. The expected dimension is taken from settings, then from
// the provider, and otherwise learned from the first response.
func NewEmbedder(provider driven.EmbeddingProvider, s domain.EmbeddingSettings, policy retry.Policy) *Embedder {
	batch := s.MaxBatchSize
	if batch < 1 {
		batch = 1
	}
	limit := s.Concurrency
	if limit < 1 {
		limit = 1
	}
	dims := s.Dimensions
	if dims <= 0 {
		dims = provider.Dimensions()
	}
	return &Embedder{
		provider:  provider,
		policy:    policy,
		batchSize: batch,
		sem:       semaphore.NewWeighted(int64(limit)),
		dims:      dims,
	}
}

// Dimensions returns the locked vector dimension, or 0 before the first call.
func (e *Embedder) Dimensions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dims
}

// ModelName returns the provider's model name.
func (e *Embedder) ModelName() string {
	return e.provider.ModelName()
}

// Embed returns one vector per text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		g.Go(func() error {
			if err := e.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer e.sem.Release(1)

			vectors, err := e.embedBatch(gctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(out[start:end], vectors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EmbedQuery embeds a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var vectors [][]float32
	err := e.policy.Do(ctx, "embed", func(ctx context.Context) error {
		v, err := e.provider.Embed(ctx, batch)
		if err != nil {
			return err
		}
		if len(v) != len(batch) {
			return domain.Permanent(fmt.Errorf("%w: provider returned %d vectors for %d inputs",
				domain.ErrEmbeddingProvider, len(v), len(batch)))
		}
		vectors = v
		return nil
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, domain.ErrEmbeddingProvider) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingProvider, e.provider.ModelName(), err)
	}

	if err := e.checkDimensions(vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

// checkDimensions verifies every vector against the locked dimension,
// locking it on the first response when it was not configured.
func (e *Embedder) checkDimensions(vectors [][]float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, v := range vectors {
		if e.dims == 0 {
			if len(v) == 0 {
				return fmt.Errorf("%w: provider returned an empty vector", domain.ErrDimensionMismatch)
			}
			e.dims = len(v)
			logger.Debug("Embedding dimension locked at %d for %s", e.dims, e.provider.ModelName())
		}
		if len(v) != e.dims {
			return fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, e.dims, len(v))
		}
	}
	return nil
}
