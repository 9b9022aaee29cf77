// Package langchain provides an LLM provider backed by langchaingo models.
package langchain

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/httpx"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure LLMProvider implements the interface.
var _ driven.LLMProvider = (*LLMProvider)(nil)

// LLMProvider adapts a langchaingo model.
type LLMProvider struct {
	model llms.Model
	name  string
}

// New wraps an existing langchaingo model.
func New(model llms.Model, name string) *LLMProvider {
	return &LLMProvider{model: model, name: name}
}

// NewFromSettings builds the langchaingo model for the configured provider.
func NewFromSettings(s domain.LLMSettings) (*LLMProvider, error) {
	switch s.Provider {
	case domain.AIProviderOpenAI:
		opts := []openai.Option{openai.WithToken(s.APIKey), openai.WithModel(s.Model)}
		if s.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(s.BaseURL))
		}
		m, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("langchain: openai model: %w", err)
		}
		return New(m, s.Model), nil
	case domain.AIProviderOllama:
		opts := []ollama.Option{ollama.WithModel(s.Model)}
		if s.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(s.BaseURL))
		}
		m, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("langchain: ollama model: %w", err)
		}
		return New(m, s.Model), nil
	default:
		return nil, fmt.Errorf("%w: langchain models do not support provider %q", domain.ErrInvalidConfig, s.Provider)
	}
}

// Complete sends prompt as a single human message.
func (p *LLMProvider) Complete(ctx context.Context, prompt string, maxOutput int) (string, error) {
	var opts []llms.CallOption
	if maxOutput > 0 {
		opts = append(opts, llms.WithMaxTokens(maxOutput))
	}

	messages := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}
	resp, err := p.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", httpx.Classify(fmt.Errorf("langchain: generate: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("langchain: no choices returned")
	}
	return resp.Choices[0].Content, nil
}

// ModelName returns the model name.
func (p *LLMProvider) ModelName() string {
	return p.name
}

// Close releases resources.
func (p *LLMProvider) Close() error {
	return nil
}
