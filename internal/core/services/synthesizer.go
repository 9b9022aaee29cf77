package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/retry"
)

// Default generation limits.
const (
	DefaultMaxOutput     = 1024
	DefaultContextBudget = 12000
)

// Synthesizer turns retrieved passages into a grounded answer.
type Synthesizer struct {
	llm       driven.LLMProvider
	prompts   driven.PromptStore
	policy    retry.Policy
	maxOutput int
	budget    int
}

// NewSynthesizer creates a synthesizer. Non-positive limits in s fall back
// to the defaults.
func NewSynthesizer(llm driven.LLMProvider, prompts driven.PromptStore, s domain.LLMSettings, policy retry.Policy) *Synthesizer {
	maxOutput := s.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	budget := s.ContextBudget
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	return &Synthesizer{
		llm:       llm,
		prompts:   prompts,
		policy:    policy,
		maxOutput: maxOutput,
		budget:    budget,
	}
}

// Synthesize answers query from passages. Passages are expected most
// relevant first; the answer lists the ones that fit the context budget.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, passages []domain.Passage) (*domain.Answer, error) {
	prompt, used, err := s.BuildPrompt(query, passages)
	if err != nil {
		return nil, err
	}
	if len(used) < len(passages) {
		logger.Debug("Context budget of %d characters kept %d of %d passages", s.budget, len(used), len(passages))
	}

	var text string
	err = s.policy.Do(ctx, "complete", func(ctx context.Context) error {
		var err error
		text, err = s.llm.Complete(ctx, prompt, s.maxOutput)
		return err
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, domain.ErrLLMProvider) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLLMProvider, s.llm.ModelName(), err)
	}

	return &domain.Answer{Text: strings.TrimSpace(text), Passages: used}, nil
}

// BuildPrompt fills the answer template with as many passages as fit the
// context budget, in order. The first passage that would overflow the budget
// is dropped together with every passage after it; passages are never cut.
// With no passage fitting, the no-context template is used.
func (s *Synthesizer) BuildPrompt(query string, passages []domain.Passage) (string, []domain.Passage, error) {
	var (
		ctxText strings.Builder
		used    []domain.Passage
		size    int
	)
	for i, p := range passages {
		entry := formatPassage(i+1, p)
		n := utf8.RuneCountInString(entry)
		if size+n > s.budget {
			break
		}
		ctxText.WriteString(entry)
		size += n
		used = append(used, p)
	}

	if len(used) == 0 {
		tmpl, err := s.prompts.Load(driven.PromptAnswerNoContext)
		if err != nil {
			return "", nil, fmt.Errorf("load prompt %s: %w", driven.PromptAnswerNoContext, err)
		}
		return fmt.Sprintf(tmpl, query), nil, nil
	}

	tmpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		return "", nil, fmt.Errorf("load prompt %s: %w", driven.PromptAnswer, err)
	}
	return fmt.Sprintf(tmpl, strings.TrimRight(ctxText.String(), "\n"), query), used, nil
}

// formatPassage renders one numbered context entry.
func formatPassage(n int, p domain.Passage) string {
	source := p.DocumentName
	if source == "" {
		source = p.DocumentID
	}
	return fmt.Sprintf("[%d] (source: %s)\n%s\n\n", n, source, p.Text)
}
