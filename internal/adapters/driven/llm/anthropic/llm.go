// Package anthropic provides an LLM provider adapter using the Anthropic API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/httpx"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure LLMProvider implements the interface.
var _ driven.LLMProvider = (*LLMProvider)(nil)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic LLM provider.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMProvider produces completions using the Anthropic Messages API.
type LLMProvider struct {
	client  *httpx.Client
	baseURL string
	model   string
}

type messagesRequest struct {
	Model     string            `json:"model"`
	Messages  []messagesMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewLLMProvider creates a new Anthropic LLM provider.
func NewLLMProvider(cfg Config) (*LLMProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic: API key is required", domain.ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := httpx.New("anthropic", cfg.Timeout)
	client.Header.Set("x-api-key", cfg.APIKey)
	client.Header.Set("anthropic-version", anthropicVersion)

	return &LLMProvider{
		client:  client,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}, nil
}

// Complete sends prompt as a single user message.
func (p *LLMProvider) Complete(ctx context.Context, prompt string, maxOutput int) (string, error) {
	// Anthropic requires max_tokens to be set
	if maxOutput <= 0 {
		maxOutput = DefaultMaxTokens
	}

	reqBody := messagesRequest{
		Model:     p.model,
		Messages:  []messagesMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxOutput,
	}

	var resp messagesResponse
	if err := p.client.PostJSON(ctx, p.baseURL+"/v1/messages", reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("anthropic: no response content returned")
	}

	// Concatenate all text content blocks
	var result strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			result.WriteString(block.Text)
		}
	}
	return result.String(), nil
}

// ModelName returns the name of the LLM model being used.
func (p *LLMProvider) ModelName() string {
	return p.model
}

// Ping validates the API key via /v1/models without running inference.
func (p *LLMProvider) Ping(ctx context.Context) error {
	return p.client.Get(ctx, p.baseURL+"/v1/models", nil)
}

// Close releases resources.
func (p *LLMProvider) Close() error {
	return nil
}
