package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:         "status",
	Short:       "Show whether the index is initialised",
	Annotations: map[string]string{needsKey: needsIndex},
	RunE:        runStatusGet,
}

var statusGetCmd = &cobra.Command{
	Use:         "get",
	Short:       "Show whether the index is initialised",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{needsKey: needsIndex},
	RunE:        runStatusGet,
}

var statusSetCmd = &cobra.Command{
	Use:   "set <true|false>",
	Short: "Override the index status flag",
	Long: `Sets the index-initialised flag directly. Setting it to false makes
questions fail until documents are ingested again.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{needsKey: needsIndex},
	RunE:        runStatusSet,
}

func init() {
	statusCmd.AddCommand(statusGetCmd)
	statusCmd.AddCommand(statusSetCmd)
	rootCmd.AddCommand(statusCmd)
}

func runStatusGet(cmd *cobra.Command, _ []string) error {
	if statusService == nil {
		return notConfigured("status")
	}
	initialized, err := statusService.Get(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading index status: %w", err)
	}
	cmd.Printf("Index initialized: %t\n", initialized)
	return nil
}

func runStatusSet(cmd *cobra.Command, args []string) error {
	if statusService == nil {
		return notConfigured("status")
	}
	value, err := strconv.ParseBool(args[0])
	if err != nil {
		return fmt.Errorf("%w: %q is not a boolean", domain.ErrInvalidArgument, args[0])
	}
	if err := statusService.Set(cmd.Context(), value); err != nil {
		return fmt.Errorf("setting index status: %w", err)
	}
	cmd.Printf("Index initialized: %t\n", value)
	return nil
}
