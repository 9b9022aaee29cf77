package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer builds the grounded answer prompt.
	// The template expects two %s placeholders: the numbered context, then the question.
	PromptAnswer = "answer"

	// PromptAnswerNoContext is used when retrieval returned nothing that fits the budget.
	// The template expects one %s placeholder for the question.
	PromptAnswerNoContext = "answer_no_context"
)
