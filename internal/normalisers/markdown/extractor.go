// Package markdown provides an Extractor for Markdown documents.
// Documents are parsed with goldmark (GFM dialect) and the AST is walked to
// emit prose text. Formatting marks, link targets and raw HTML are dropped;
// code block contents are kept.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles Markdown documents.
type Extractor struct {
	md goldmark.Markdown
}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// Extensions returns the extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{"md", "markdown"}
}

// Extract returns the plain text of a Markdown document.
func (e *Extractor) Extract(_ context.Context, content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%w: markdown is not valid UTF-8", domain.ErrExtraction)
	}

	doc := e.md.Parser().Parse(text.NewReader(content))

	var buf bytes.Buffer
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			closeNode(&buf, n)
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			buf.Write(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(content))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(content))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// closeNode writes the separator that follows a node.
func closeNode(buf *bytes.Buffer, n ast.Node) {
	switch n.(type) {
	case *extast.TableCell:
		buf.WriteByte('\t')
	case *ast.TextBlock, *ast.ListItem, *extast.TableRow, *extast.TableHeader:
		ensureBreaks(buf, 1)
	case *ast.Paragraph, *ast.Heading, *ast.List, *ast.Blockquote,
		*ast.FencedCodeBlock, *ast.CodeBlock, *extast.Table, *ast.ThematicBreak:
		ensureBreaks(buf, 2)
	}
}

// ensureBreaks pads buf so it ends with at least n newlines.
func ensureBreaks(buf *bytes.Buffer, n int) {
	if buf.Len() == 0 {
		return
	}
	b := buf.Bytes()
	have := 0
	for i := len(b) - 1; i >= 0 && b[i] == '\n' && have < n; i-- {
		have++
	}
	for ; have < n; have++ {
		buf.WriteByte('\n')
	}
}
