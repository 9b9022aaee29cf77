// Package normalisers turns document bytes into normalised text.
//
// Each subpackage implements driven.Extractor for one family of formats
// (plain text, PDF, Office files, HTML, Markdown, email). A Registry maps
// extensions to extractors and is the driven.DocumentLoader the ingestion
// coordinator sees. DefaultRegistry wires every built-in extractor.
package normalisers
