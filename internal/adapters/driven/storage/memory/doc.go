// Package memory provides in-memory implementations of the vector, status
// and outcome stores. Nothing is persisted; they back tests and the
// "memory" backends.
package memory
