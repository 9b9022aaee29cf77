// Package docx provides an Extractor for Word (.docx) documents.
// Text is read from word/document.xml; each paragraph, including those in
// tables, becomes one line.
package docx

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/ooxml"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{"docx"}
}

// Extract returns the paragraphs of the document body.
func (e *Extractor) Extract(_ context.Context, content []byte) (string, error) {
	reader, err := ooxml.Open(content)
	if err != nil {
		return "", err
	}

	data, ok, err := ooxml.ReadPart(reader, documentPart)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: docx has no %s", domain.ErrExtraction, documentPart)
	}

	paras, err := ooxml.Paragraphs(data, ooxml.WordprocessingML)
	if err != nil {
		return "", err
	}
	return strings.Join(paras, "\n"), nil
}
