// Package app wires settings, adapters and core services into the
// application the CLI runs against.
package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/connectors"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-rag/internal/retry"
)

// Ensure Bootstrap implements the interface.
var _ cli.Bootstrap = (*Bootstrap)(nil)

// Bootstrap builds the CLI's collaborators from the config directory.
type Bootstrap struct {
	// Getenv reads secrets. Defaults to os.Getenv.
	Getenv func(string) string
}

// Config opens the TOML config store.
func (b *Bootstrap) Config(configDir string) (driven.ConfigStore, error) {
	return file.NewConfigStore(configDir)
}

// Settings opens the config store and loads validated settings.
func (b *Bootstrap) Settings(configDir string) (*file.ConfigStore, domain.Settings, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, domain.Settings{}, err
	}
	settings, err := file.LoadSettings(store, b.getenv())
	if err != nil {
		return nil, domain.Settings{}, err
	}
	return store, settings, nil
}

// Services builds the full pipeline. The LLM is only built when withLLM is set.
func (b *Bootstrap) Services(ctx context.Context, configDir string, withLLM bool) (*cli.Services, error) {
	store, settings, err := b.Settings(configDir)
	if err != nil {
		return nil, err
	}
	return Build(ctx, settings, filepath.Join(filepath.Dir(store.Path()), "prompts"), withLLM)
}

// Checks validates the configured AI providers.
func (b *Bootstrap) Checks(ctx context.Context, configDir string) ([]cli.Check, error) {
	_, settings, err := b.Settings(configDir)
	if err != nil {
		return nil, err
	}
	v := ai.NewConfigValidator()
	results := []ai.CheckResult{
		v.ValidateEmbedding(ctx, settings.Embedding),
		v.ValidateLLM(ctx, settings.LLM),
	}

	checks := make([]cli.Check, 0, len(results))
	for _, r := range results {
		checks = append(checks, cli.Check{
			Component: r.Component,
			Provider:  string(r.Provider),
			Model:     r.Model,
			Err:       r.Err,
		})
	}
	return checks, nil
}

func (b *Bootstrap) getenv() func(string) string {
	if b.Getenv != nil {
		return b.Getenv
	}
	return os.Getenv
}

// Build constructs every adapter and service for settings. The returned
// Services.Close releases providers and stores.
func Build(ctx context.Context, settings domain.Settings, promptDir string, withLLM bool) (*cli.Services, error) {
	logger.Section("Bootstrap")

	chunks, err := chunker.FromSettings(settings.Chunking)
	if err != nil {
		return nil, err
	}

	source, err := connectors.NewSource(ctx, settings.Source)
	if err != nil {
		return nil, err
	}
	logger.Debug("source: %s", source.Name())

	providers, err := ai.NewProviders(settings.Embedding, settings.LLM, withLLM)
	if err != nil {
		return nil, err
	}
	logger.Debug("embedding: %s/%s", settings.Embedding.Provider, providers.Embedding.ModelName())

	stores, err := storage.Open(ctx, settings.VectorStore, settings.Status)
	if err != nil {
		_ = providers.Close()
		return nil, err
	}
	logger.Debug("vector store: %s, status store: %s", settings.VectorStore.Backend, settings.Status.Backend)

	policy := retry.FromSettings(settings.Retry)
	status := services.NewStatusTracker(stores.Status)
	embedder := services.NewEmbedder(providers.Embedding, settings.Embedding, policy)

	ingestion := services.NewIngestionCoordinator(
		source,
		normalisers.DefaultRegistry(),
		chunks,
		embedder,
		stores.Vectors,
		status,
		services.WithOutcomeStore(stores.Outcomes),
		services.WithStorePolicy(policy),
		services.WithIngestConcurrency(settings.Ingest.Concurrency),
	)

	svc := &cli.Services{
		Ingestion: ingestion,
		Status:    status,
		Source:    source,
		Outcomes:  stores.Outcomes,
		Close: func() error {
			return errors.Join(providers.Close(), stores.Close())
		},
	}

	if withLLM {
		prompts, err := file.NewPromptStore(promptDir)
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		retriever := services.NewRetriever(embedder, stores.Vectors, status, policy)
		synthesizer := services.NewSynthesizer(providers.LLM, prompts, settings.LLM, policy)
		svc.Query = services.NewQueryEngine(retriever, synthesizer)
		logger.Debug("llm: %s/%s", settings.LLM.Provider, providers.LLM.ModelName())
	}
	return svc, nil
}
