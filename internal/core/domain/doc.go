// Package domain defines the core entities for the Sercha RAG pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types shared by ingestion and retrieval:
//
//   - Document: Raw bytes fetched from a document source
//   - Chunk: A bounded span of a document's normalised text
//   - VectorRecord: An embedded chunk as persisted by a vector store
//   - Passage: A retrieved chunk with provenance and score
//   - IngestOutcome: The per-document result of an ingestion batch
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, github.com/google/uuid
//   - Cannot Import: Any internal/ package, any other external dependency
package domain
