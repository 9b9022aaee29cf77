package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	sourcesName   string
	sourcesFolder string
	sourcesExts   []string
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List documents available in the source",
	Long: `Lists the documents the configured source exposes, without ingesting them.
Use the printed IDs with "sercha ingest".`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{needsKey: needsIndex},
	RunE:        runSources,
}

func init() {
	sourcesCmd.Flags().StringVar(&sourcesName, "name", "", "only documents whose name contains this text")
	sourcesCmd.Flags().StringVar(&sourcesFolder, "folder", "", "only documents under this folder or prefix")
	sourcesCmd.Flags().StringSliceVar(&sourcesExts, "ext", nil, "only these extensions (comma separated)")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	if documentSource == nil {
		return notConfigured("source")
	}

	refs, err := documentSource.List(cmd.Context(), domain.SourceFilter{
		NameContains: sourcesName,
		Folder:       sourcesFolder,
		Extensions:   sourcesExts,
	})
	if err != nil {
		return fmt.Errorf("listing %s: %w", documentSource.Name(), err)
	}

	if len(refs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}
	for _, ref := range refs {
		ext := ref.Extension
		if ext == "" {
			ext = "-"
		}
		cmd.Printf("  %-6s %s\t%s\n", ext, ref.ID, ref.Name)
	}
	cmd.Printf("\n%d documents in %s\n", len(refs), documentSource.Name())
	return nil
}
