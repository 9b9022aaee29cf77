package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DefaultTopK is the number of passages retrieved when --top-k is not given.
const DefaultTopK = 5

var (
	askTopK int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from indexed documents",
	Long: `Retrieves the passages most similar to the question and asks the
language model for an answer grounded in them. The index must be
initialised first (see "sercha initialize").`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{needsKey: needsQuery},
	RunE:        runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", DefaultTopK, "number of passages to retrieve")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return notConfigured("query")
	}
	if askTopK <= 0 {
		return fmt.Errorf("%w: --top-k must be positive", domain.ErrInvalidArgument)
	}

	question := strings.Join(args, " ")
	answer, err := queryService.Answer(cmd.Context(), question, askTopK)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	outputAnswer(cmd, answer)
	return nil
}

type answerJSON struct {
	Answer  string        `json:"answer"`
	Sources []passageJSON `json:"sources"`
}

type passageJSON struct {
	DocumentID    string  `json:"document_id"`
	DocumentName  string  `json:"document_name,omitempty"`
	SequenceIndex int     `json:"sequence_index"`
	Score         float32 `json:"score"`
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := answerJSON{Answer: answer.Text, Sources: []passageJSON{}}
	for _, p := range answer.Passages {
		out.Sources = append(out.Sources, passageJSON{
			DocumentID:    p.DocumentID,
			DocumentName:  p.DocumentName,
			SequenceIndex: p.SequenceIndex,
			Score:         p.Score,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(strings.TrimSpace(answer.Text))
	if len(answer.Passages) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i, p := range answer.Passages {
		name := p.DocumentName
		if name == "" {
			name = p.DocumentID
		}
		// Format: [N] name #chunk (score)
		cmd.Printf("  [%d] %s #%d (%.2f)\n", i+1, name, p.SequenceIndex, p.Score)
	}
}
