package normalisers

import (
	"github.com/custodia-labs/sercha-rag/internal/normalisers/delimited"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/docx"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/eml"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/html"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/pdf"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/plaintext"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/pptx"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/xlsx"
)

// DefaultRegistry returns a registry with every built-in extractor.
func DefaultRegistry() *Registry {
	return NewRegistry(
		plaintext.New(),
		delimited.NewCSV(),
		delimited.NewTSV(),
		markdown.New(),
		html.New(),
		pdf.New(),
		docx.New(),
		pptx.New(),
		xlsx.New(),
		eml.New(),
	)
}
