package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func slideXML(paras ...string) string {
	var b bytes.Buffer
	b.WriteString(`<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody>`)
	for _, p := range paras {
		b.WriteString(`<a:p><a:r><a:t>` + p + `</a:t></a:r></a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
	return b.String()
}

func createTestPPTX(t *testing.T, slides map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, body := range slides {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{"pptx"}, New().Extensions())
}

func TestExtract_SlidesInNumericOrder(t *testing.T) {
	content := createTestPPTX(t, map[string]string{
		"ppt/slides/slide10.xml":            slideXML("Ten"),
		"ppt/slides/slide2.xml":             slideXML("Two", "Second line"),
		"ppt/slides/slide1.xml":             slideXML("One"),
		"ppt/slides/_rels/slide1.xml.rels":  "<Relationships/>",
		"ppt/slideLayouts/slideLayout1.xml": slideXML("Layout text"),
	})

	text, err := New().Extract(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, "One\n\nTwo\nSecond line\n\nTen", text)
}

func TestExtract_NoSlides(t *testing.T) {
	content := createTestPPTX(t, map[string]string{"ppt/presentation.xml": "<p/>"})

	_, err := New().Extract(context.Background(), content)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtract_InvalidZip(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("nope"))
	assert.ErrorIs(t, err, domain.ErrExtraction)
}
