package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func sampleAnswer() *domain.Answer {
	return &domain.Answer{
		Text: "The Q1 revenue was 4.2M.\n",
		Passages: []domain.Passage{
			{Text: "Revenue 4.2M", DocumentID: "reports/q1.pdf", DocumentName: "q1.pdf", SequenceIndex: 2, Score: 0.91},
			{Text: "Costs", DocumentID: "reports/costs.xlsx", SequenceIndex: 0, Score: 0.5},
		},
	}
}

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask <question>", askCmd.Use)
	assert.Equal(t, needsQuery, askCmd.Annotations[needsKey])
}

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	q := &mockQuery{answer: sampleAnswer()}
	withServices(t, &Services{Query: q})

	out, err := execute(t, "ask", "what", "was", "revenue?", "--top-k", "3")

	require.NoError(t, err)
	assert.Equal(t, "what was revenue?", q.question)
	assert.Equal(t, 3, q.topK)
	assert.Contains(t, out, "The Q1 revenue was 4.2M.")
	assert.Contains(t, out, "[1] q1.pdf #2 (0.91)")
	assert.Contains(t, out, "[2] reports/costs.xlsx #0 (0.50)")
}

func TestAskCmd_DefaultTopK(t *testing.T) {
	q := &mockQuery{answer: &domain.Answer{Text: "none"}}
	withServices(t, &Services{Query: q})

	out, err := execute(t, "ask", "anything")

	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, q.topK)
	assert.NotContains(t, out, "Sources:")
}

func TestAskCmd_JSON(t *testing.T) {
	withServices(t, &Services{Query: &mockQuery{answer: sampleAnswer()}})

	out, err := execute(t, "ask", "revenue", "--json")
	require.NoError(t, err)

	var got answerJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "The Q1 revenue was 4.2M.\n", got.Answer)
	require.Len(t, got.Sources, 2)
	assert.Equal(t, "reports/q1.pdf", got.Sources[0].DocumentID)
}

func TestAskCmd_NotInitialized(t *testing.T) {
	withServices(t, &Services{Query: &mockQuery{err: domain.ErrNotInitialized}})

	_, err := execute(t, "ask", "anything")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
	assert.Equal(t, "not_initialized", domain.Kind(err))
}

func TestAskCmd_InvalidTopK(t *testing.T) {
	q := &mockQuery{answer: sampleAnswer()}
	withServices(t, &Services{Query: q})

	_, err := execute(t, "ask", "x", "--top-k", "0")

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Empty(t, q.question)
}

func TestAskCmd_ServiceNotConfigured(t *testing.T) {
	withServices(t, &Services{})

	_, err := execute(t, "ask", "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query service not configured")
}
