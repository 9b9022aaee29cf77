// Package ooxml holds the zip and XML plumbing shared by the Office Open XML
// extractors (docx, pptx).
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Namespaces of the text-bearing markup in each format.
const (
	WordprocessingML = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	DrawingML        = "http://schemas.openxmlformats.org/drawingml/2006/main"
)

// maxPartSize bounds a single decompressed part.
const maxPartSize = 64 << 20

// Open reads content as a zip package.
func Open(content []byte) (*zip.Reader, error) {
	r, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not an office package: %v", domain.ErrExtraction, err)
	}
	return r, nil
}

// ReadPart returns the decompressed bytes of the named part.
// A missing part returns (nil, false, nil).
func ReadPart(r *zip.Reader, name string) ([]byte, bool, error) {
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, true, fmt.Errorf("%w: open %s: %v", domain.ErrExtraction, name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
		if err != nil {
			return nil, true, fmt.Errorf("%w: read %s: %v", domain.ErrExtraction, name, err)
		}
		if len(data) > maxPartSize {
			return nil, true, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrExtraction, name, maxPartSize)
		}
		return data, true, nil
	}
	return nil, false, nil
}

// Paragraphs streams an XML part and returns the text of each paragraph
// element in namespace space. Tab and break elements become whitespace.
// Paragraphs with no text are omitted.
func Paragraphs(data []byte, space string) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		paras  []string
		cur    strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed xml: %v", domain.ErrExtraction, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != space {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != space {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(cur.String()); s != "" {
					paras = append(paras, s)
				}
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return paras, nil
}
