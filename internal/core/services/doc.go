// Package services implements the driving port interfaces.
// Services contain the core pipeline logic (ingestion, retrieval and answer
// synthesis) and orchestrate calls to driven ports (adapters).
//
// Services are pure Go with no CGO or external dependencies beyond
// golang.org/x/sync for bounded concurrency.
package services
