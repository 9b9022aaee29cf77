// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentSource: Lists and fetches documents from an external file source
//   - Extractor: Turns raw bytes of one format into normalised text
//   - DocumentLoader: Dispatches to an Extractor by extension
//   - Chunker: Splits normalised text into overlapping chunks
//   - EmbeddingProvider: Maps texts to fixed-dimension vectors
//   - VectorStore: Idempotent upsert and similarity search over vectors
//   - StatusStore: Durable index-initialised flag
//   - LLMProvider: Generates the grounded answer
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil:
//
//   - OutcomeStore: Ingestion history. Without it, outcomes are only logged.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
