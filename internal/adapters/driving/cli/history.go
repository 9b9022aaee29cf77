package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:         "history",
	Short:       "Show recent ingestion outcomes",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{needsKey: needsIndex},
	RunE:        runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of records (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if outcomeStore == nil {
		return notConfigured("history")
	}

	records, err := outcomeStore.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	if len(records) == 0 {
		cmd.Println("No ingestion history.")
		return nil
	}
	for _, r := range records {
		printRecord(cmd, r)
	}
	return nil
}

func printRecord(cmd *cobra.Command, r domain.IngestRecord) {
	name := r.DocumentName
	if name == "" {
		name = r.DocumentID
	}
	at := r.FinishedAt.Local().Format(time.DateTime)
	if r.State == domain.IngestIndexed {
		cmd.Printf("%s  indexed  %s (%d chunks)\n", at, name, r.Chunks)
		return
	}
	cmd.Printf("%s  %-8s %s [%s]: %s\n", at, r.State, name, r.Kind, r.Reason)
}
