package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// CheckResult is the outcome of validating one provider.
type CheckResult struct {
	Component string
	Provider  domain.AIProvider
	Model     string
	Err       error
}

// OK returns true if the provider was built and answered a ping.
func (r CheckResult) OK() bool {
	return r.Err == nil
}

// ConfigValidator validates AI provider configurations by building each
// provider and pinging it.
type ConfigValidator struct {
	ping func(ctx context.Context, p any) error
}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{ping: Ping}
}

// ValidateEmbedding builds the embedding provider and checks connectivity.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, settings domain.EmbeddingSettings) CheckResult {
	res := CheckResult{Component: "embedding", Provider: settings.Provider, Model: settings.Model}
	p, err := NewEmbeddingProvider(settings)
	if err != nil {
		res.Err = err
		return res
	}
	defer p.Close()
	if err := v.ping(ctx, p); err != nil {
		res.Err = fmt.Errorf("%w: unreachable: %w", domain.ErrEmbeddingProvider, err)
	}
	return res
}

// ValidateLLM builds the LLM provider and checks connectivity.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, settings domain.LLMSettings) CheckResult {
	res := CheckResult{Component: "llm", Provider: settings.Provider, Model: settings.Model}
	p, err := NewLLMProvider(settings)
	if err != nil {
		res.Err = err
		return res
	}
	defer p.Close()
	if err := v.ping(ctx, p); err != nil {
		res.Err = fmt.Errorf("%w: unreachable: %w", domain.ErrLLMProvider, err)
	}
	return res
}
