// Package langchain provides an embedding provider backed by langchaingo,
// which lets any langchaingo embedder client (OpenAI-compatible, Ollama)
// serve the pipeline.
package langchain

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/httpx"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure EmbeddingProvider implements the interface.
var _ driven.EmbeddingProvider = (*EmbeddingProvider)(nil)

// EmbeddingProvider adapts a langchaingo embedder.
type EmbeddingProvider struct {
	embedder   embeddings.Embedder
	model      string
	dimensions int
}

// New wraps an existing langchaingo embedder.
func New(embedder embeddings.Embedder, model string, dimensions int) *EmbeddingProvider {
	return &EmbeddingProvider{embedder: embedder, model: model, dimensions: dimensions}
}

// NewFromSettings builds the langchaingo client for the configured provider.
func NewFromSettings(s domain.EmbeddingSettings) (*EmbeddingProvider, error) {
	var client embeddings.EmbedderClient
	switch s.Provider {
	case domain.AIProviderOpenAI:
		opts := []openai.Option{openai.WithToken(s.APIKey), openai.WithEmbeddingModel(s.Model)}
		if s.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(s.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("langchain: openai client: %w", err)
		}
		client = llm
	case domain.AIProviderOllama:
		opts := []ollama.Option{ollama.WithModel(s.Model)}
		if s.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(s.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("langchain: ollama client: %w", err)
		}
		client = llm
	default:
		return nil, fmt.Errorf("%w: langchain embeddings do not support provider %q", domain.ErrInvalidConfig, s.Provider)
	}

	batch := s.MaxBatchSize
	if batch <= 0 {
		batch = 32
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(batch))
	if err != nil {
		return nil, fmt.Errorf("langchain: create embedder: %w", err)
	}

	dims := s.Dimensions
	if dims == 0 {
		dims = domain.EmbeddingDimensions()[s.Model]
	}
	return New(embedder, s.Model, dims), nil
}

// Embed generates one embedding per text.
func (p *EmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, httpx.Classify(fmt.Errorf("langchain: embed: %w", err))
	}
	return vectors, nil
}

// Dimensions returns the configured or known vector size, or 0.
func (p *EmbeddingProvider) Dimensions() int {
	return p.dimensions
}

// ModelName returns the model name.
func (p *EmbeddingProvider) ModelName() string {
	return p.model
}

// Close releases resources.
func (p *EmbeddingProvider) Close() error {
	return nil
}
