// Package pptx provides an Extractor for PowerPoint (.pptx) presentations.
// Slides are read in slide-number order and separated by a blank line.
package pptx

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/ooxml"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extractor handles PPTX presentations.
type Extractor struct{}

// New creates a new PPTX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{"pptx"}
}

type slide struct {
	num  int
	name string
}

// Extract returns the text of every slide.
func (e *Extractor) Extract(ctx context.Context, content []byte) (string, error) {
	reader, err := ooxml.Open(content)
	if err != nil {
		return "", err
	}

	var slides []slide
	for _, f := range reader.File {
		m := slidePart.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: n, name: f.Name})
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("%w: pptx has no slides", domain.ErrExtraction)
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	blocks := make([]string, 0, len(slides))
	for _, s := range slides {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, _, err := ooxml.ReadPart(reader, s.name)
		if err != nil {
			return "", err
		}
		paras, err := ooxml.Paragraphs(data, ooxml.DrawingML)
		if err != nil {
			return "", fmt.Errorf("slide %d: %w", s.num, err)
		}
		if len(paras) > 0 {
			blocks = append(blocks, strings.Join(paras, "\n"))
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}
