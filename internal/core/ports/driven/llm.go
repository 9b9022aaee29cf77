package driven

import "context"

// LLMProvider produces text completions.
//
// Implementations may include:
//   - OpenAI (GPT-4o)
//   - Anthropic (Claude)
//   - Ollama (local models)
//   - langchaingo models
type LLMProvider interface {
	// Complete generates a completion for prompt, limited to maxOutput tokens.
	// Implementations mark rate limits and timeouts with domain.Transient.
	Complete(ctx context.Context, prompt string, maxOutput int) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
