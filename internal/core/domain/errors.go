package domain

import (
	"context"
	"errors"
)

// Domain errors represent pipeline failures.
// Adapters wrap them with fmt.Errorf("...: %w") so callers can use errors.Is.
var (
	// ErrNotFound indicates a requested document does not exist in the source.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument indicates malformed caller input (blank query, non-positive top_k).
	ErrInvalidArgument = errors.New("invalid argument")

	// Ingestion Errors.

	// ErrUnsupportedFormat indicates no extractor is registered for an extension.
	// Permanent: retrying with the same extension will fail again.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtraction indicates the extractor could not parse the content
	// (corrupt, encrypted or empty). Permanent.
	ErrExtraction = errors.New("extraction failed")

	// ErrCancelled indicates the document was still in flight when its batch was cancelled.
	ErrCancelled = errors.New("cancelled")

	// Provider Errors.

	// ErrEmbeddingProvider indicates the embedding provider failed after retries.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrLLMProvider indicates the language model provider failed after retries.
	ErrLLMProvider = errors.New("llm provider error")

	// ErrVectorStore indicates the vector store backend failed.
	ErrVectorStore = errors.New("vector store error")

	// ErrStatusStore indicates the index status could not be read or written.
	ErrStatusStore = errors.New("status store error")

	// Retrieval Errors.

	// ErrNotInitialized indicates a query was attempted before any successful ingestion.
	ErrNotInitialized = errors.New("index not initialized")

	// Configuration Errors.

	// ErrInvalidConfig indicates a fatal configuration problem (e.g. overlap >= size).
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDimensionMismatch indicates a provider returned vectors of the wrong dimension.
	// Fatal: it is a configuration error, never retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// transientError marks an error as safe to retry.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// permanentError marks an error as not retryable even if it wraps a transient one.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Transient marks err as retryable (rate limit, timeout, unavailable).
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// Permanent marks err as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsTransient reports whether err should be retried.
// The outermost marker wins; context cancellation is never transient.
func IsTransient(err error) bool {
	for err != nil {
		switch err.(type) {
		case *permanentError:
			return false
		case *transientError:
			return true
		}
		if errors.Is(err, context.Canceled) {
			return false
		}
		err = errors.Unwrap(err)
	}
	return false
}

// kinds maps each sentinel to the short label reported to operators.
var kinds = []struct {
	err  error
	kind string
}{
	{ErrNotInitialized, "not_initialized"},
	{ErrUnsupportedFormat, "unsupported_format"},
	{ErrExtraction, "extraction_error"},
	{ErrDimensionMismatch, "dimension_mismatch"},
	{ErrInvalidConfig, "invalid_config"},
	{ErrEmbeddingProvider, "embedding_provider_error"},
	{ErrLLMProvider, "llm_provider_error"},
	{ErrVectorStore, "vector_store_error"},
	{ErrStatusStore, "status_store_error"},
	{ErrCancelled, "cancelled"},
	{ErrNotFound, "not_found"},
	{ErrInvalidArgument, "invalid_argument"},
}

// Kind returns the label of the first domain error found in err's chain,
// or "internal" if none matches.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return "internal"
}
