package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	ingestExt string

	populateName   string
	populateFolder string
	populateExts   []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <document-id>...",
	Short: "Ingest documents into the index",
	Long: `Loads, chunks, embeds and indexes the given documents.
Re-ingesting a document replaces its previous chunks.
With one ID a failure is returned as the command error; with several,
failures are reported per document.`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: map[string]string{needsKey: needsIndex},
	RunE:        runIngest,
}

var populateCmd = &cobra.Command{
	Use:   "populate [document-id...]",
	Short: "Populate the index from the source",
	Long: `Ingests the given documents, or every document the source lists
when no IDs are provided. Listing can be narrowed with --name, --folder and --ext.`,
	Annotations: map[string]string{needsKey: needsIndex},
	RunE:        runPopulate,
}

var initializeCmd = &cobra.Command{
	Use:         "initialize",
	Short:       "Index every document in the source",
	Long:        `Ingests everything the source lists and reports the resulting index status.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{needsKey: needsIndex},
	RunE:        runInitialize,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestExt, "ext", "", "override the document extension (e.g. pdf)")

	populateCmd.Flags().StringVar(&populateName, "name", "", "only documents whose name contains this text")
	populateCmd.Flags().StringVar(&populateFolder, "folder", "", "only documents under this folder or prefix")
	populateCmd.Flags().StringSliceVar(&populateExts, "ext", nil, "only these extensions (comma separated)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(populateCmd)
	rootCmd.AddCommand(initializeCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return notConfigured("ingestion")
	}

	refs := make([]domain.DocumentRef, 0, len(args))
	for _, id := range args {
		refs = append(refs, domain.DocumentRef{ID: id, Extension: ingestExt})
	}

	if len(refs) == 1 {
		outcome, err := ingestionService.IngestDocument(cmd.Context(), refs[0])
		printOutcome(cmd, outcome)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", refs[0].ID, err)
		}
		return nil
	}

	outcomes := ingestionService.IngestBatch(cmd.Context(), refs)
	printOutcomes(cmd, outcomes)
	return nil
}

func runPopulate(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return notConfigured("ingestion")
	}

	if len(args) > 0 {
		refs := make([]domain.DocumentRef, 0, len(args))
		for _, id := range args {
			refs = append(refs, domain.DocumentRef{ID: id})
		}
		printOutcomes(cmd, ingestionService.IngestBatch(cmd.Context(), refs))
		return nil
	}

	filter := domain.SourceFilter{
		NameContains: populateName,
		Folder:       populateFolder,
		Extensions:   populateExts,
	}
	outcomes, err := ingestionService.IngestAll(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("populate failed: %w", err)
	}
	printOutcomes(cmd, outcomes)
	return nil
}

func runInitialize(cmd *cobra.Command, _ []string) error {
	if ingestionService == nil {
		return notConfigured("ingestion")
	}

	cmd.Println("Indexing all documents...")
	outcomes, err := ingestionService.Initialize(cmd.Context())
	if err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}
	printOutcomes(cmd, outcomes)

	if statusService != nil {
		initialized, err := statusService.Get(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading index status: %w", err)
		}
		cmd.Printf("Index initialized: %t\n", initialized)
	}
	return nil
}

func printOutcomes(cmd *cobra.Command, outcomes []domain.IngestOutcome) {
	if len(outcomes) == 0 {
		cmd.Println("No documents to ingest.")
		return
	}
	for _, o := range outcomes {
		printOutcome(cmd, o)
	}
	s := domain.Summarise(outcomes)
	cmd.Printf("\nIndexed %d of %d documents (%d chunks, %d failed)\n", s.Indexed, s.Total, s.Chunks, s.Failed)
}

func printOutcome(cmd *cobra.Command, o domain.IngestOutcome) {
	name := o.Ref.Name
	if name == "" {
		name = o.Ref.ID
	}
	if o.Indexed() {
		cmd.Printf("  indexed  %s (%d chunks)\n", name, o.Chunks)
		return
	}
	reason := "unknown error"
	if o.Reason != nil {
		reason = o.Reason.Error()
	}
	cmd.Printf("  failed   %s at %s [%s]: %s\n", name, o.FailedAt, domain.Kind(o.Reason), strings.TrimSpace(reason))
}
