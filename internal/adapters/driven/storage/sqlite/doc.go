// Package sqlite provides SQLite-backed implementations of the status and
// ingestion history ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both stores share one database file:
//
//   - StatusStore: the index-initialised flag
//   - OutcomeStore: per-document ingestion history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a single NNN_name.up.sql file; applied
// versions are recorded in schema_migrations.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
