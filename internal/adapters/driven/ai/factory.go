// Package ai provides factory functions for creating embedding and LLM
// provider adapters from settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	langchainembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/langchain"
	anthropicllm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/anthropic"
	langchainllm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/langchain"
	ollamallm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for provider connectivity validation.
const pingTimeout = 5 * time.Second

// Pinger is implemented by providers that can check connectivity without
// running inference.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Providers holds the AI adapters built for one process.
type Providers struct {
	Embedding driven.EmbeddingProvider
	LLM       driven.LLMProvider
}

// Close releases all resources held by the providers.
func (p *Providers) Close() error {
	var errs []error
	if p.Embedding != nil {
		errs = append(errs, p.Embedding.Close())
	}
	if p.LLM != nil {
		errs = append(errs, p.LLM.Close())
	}
	return errors.Join(errs...)
}

// NewProviders builds both providers. The embedding provider is always
// required; the LLM is built only when withLLM is set, since ingestion
// never needs it.
func NewProviders(embedding domain.EmbeddingSettings, llm domain.LLMSettings, withLLM bool) (*Providers, error) {
	emb, err := NewEmbeddingProvider(embedding)
	if err != nil {
		return nil, err
	}
	p := &Providers{Embedding: emb}
	if !withLLM {
		return p, nil
	}
	p.LLM, err = NewLLMProvider(llm)
	if err != nil {
		_ = emb.Close()
		return nil, err
	}
	return p, nil
}

// NewEmbeddingProvider creates the embedding provider selected by settings.
func NewEmbeddingProvider(settings domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama or openai", domain.ErrInvalidConfig)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider %q is not configured", domain.ErrInvalidConfig, settings.Provider)
	}
	if settings.LangChain {
		return langchainembed.NewFromSettings(settings)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil
	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrInvalidConfig, settings.Provider)
	}
}

// NewLLMProvider creates the LLM provider selected by settings.
func NewLLMProvider(settings domain.LLMSettings) (driven.LLMProvider, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: llm provider %q is not configured", domain.ErrInvalidConfig, settings.Provider)
	}
	if settings.LangChain {
		return langchainllm.NewFromSettings(settings)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil
	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)
	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", domain.ErrInvalidConfig, settings.Provider)
	}
}

// Ping checks connectivity of p if it supports it. Providers that cannot
// be pinged are assumed reachable.
func Ping(ctx context.Context, p any) error {
	pinger, ok := p.(Pinger)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return pinger.Ping(ctx)
}

func createOllamaEmbedding(settings domain.EmbeddingSettings) driven.EmbeddingProvider {
	return ollamaembed.NewEmbeddingProvider(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
}

func createOpenAIEmbedding(settings domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	return openaiembed.NewEmbeddingProvider(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
}

func createOllamaLLM(settings domain.LLMSettings) driven.LLMProvider {
	return ollamallm.NewLLMProvider(ollamallm.Config{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

func createOpenAILLM(settings domain.LLMSettings) (driven.LLMProvider, error) {
	return openaillm.NewLLMProvider(openaillm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

func createAnthropicLLM(settings domain.LLMSettings) (driven.LLMProvider, error) {
	return anthropicllm.NewLLMProvider(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
