// Package cli implements the sercha command line: ingestion, question
// answering, index status, source listing, history and configuration.
//
// Commands run against package-level services. The entry point registers a
// Bootstrap that builds them lazily from the config directory, so commands
// that only touch configuration never open stores or providers. Tests swap
// the services directly.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

var (
	verbose   bool
	configDir string
)

// Services used by the commands.
var (
	ingestionService driving.IngestionService
	queryService     driving.QueryService
	statusService    driving.StatusService
	documentSource   driven.DocumentSource
	outcomeStore     driven.OutcomeStore
	configStore      driven.ConfigStore

	bootstrap     Bootstrap
	closeServices func() error
)

// Annotation values naming what a command needs before it runs.
const (
	needsKey    = "needs"
	needsConfig = "config"
	needsIndex  = "index"
	needsQuery  = "query"
)

// Services is the set of application services a command may use.
type Services struct {
	Ingestion driving.IngestionService
	Query     driving.QueryService
	Status    driving.StatusService
	Source    driven.DocumentSource
	Outcomes  driven.OutcomeStore

	// Close releases everything the services hold. May be nil.
	Close func() error
}

// Check is the result of validating one configured provider.
type Check struct {
	Component string
	Provider  string
	Model     string
	Err       error
}

// Bootstrap builds the collaborators for a config directory.
type Bootstrap interface {
	// Config opens the configuration store.
	Config(configDir string) (driven.ConfigStore, error)

	// Services builds the pipeline. The LLM is only needed when withLLM is set.
	Services(ctx context.Context, configDir string, withLLM bool) (*Services, error)

	// Checks builds and pings each configured provider.
	Checks(ctx context.Context, configDir string) ([]Check, error)
}

var rootCmd = &cobra.Command{
	Use:   "sercha",
	Short: "Ask questions about your documents",
	Long: `Sercha ingests documents from a file source (local directory, Google Drive
or S3), indexes them in a vector store and answers questions grounded in
the indexed content.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.sercha)")
}

// SetBootstrap registers the builder used to create services on demand.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs already-built services.
func SetServices(s *Services) {
	ingestionService = s.Ingestion
	queryService = s.Query
	statusService = s.Status
	documentSource = s.Source
	outcomeStore = s.Outcomes
	closeServices = s.Close
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command and releases the services afterwards.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			logger.Warn("closing services: %v", cerr)
		}
		closeServices = nil
	}
	return err
}

// setup enables logging and builds whatever the command declares it needs.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if bootstrap == nil {
		return nil
	}

	switch need := cmd.Annotations[needsKey]; need {
	case needsConfig:
		if configStore != nil {
			return nil
		}
		store, err := bootstrap.Config(configDir)
		if err != nil {
			return err
		}
		configStore = store

	case needsIndex, needsQuery:
		withLLM := need == needsQuery
		if ingestionService != nil && (!withLLM || queryService != nil) {
			return nil
		}
		s, err := bootstrap.Services(cmd.Context(), configDir, withLLM)
		if err != nil {
			return err
		}
		if closeServices != nil {
			_ = closeServices()
		}
		SetServices(s)
	}
	return nil
}

func notConfigured(what string) error {
	return fmt.Errorf("%s service not configured", what)
}
