package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// fakeBucket serves a path-style S3 API for one bucket.
type fakeBucket struct {
	objects  map[string]string
	pages    [][]string
	prefixes []string
}

func (f *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/docs")
	if path == "" || path == "/" {
		f.list(w, r)
		return
	}

	key := strings.TrimPrefix(path, "/")
	switch key {
	case "broken.txt":
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>InternalError</Code><Message>boom</Message></Error>`)
		return
	}
	body, ok := f.objects[key]
	if !ok {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
		return
	}
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	w.Header().Set("Last-Modified", "Mon, 03 Feb 2025 10:00:00 GMT")
	fmt.Fprint(w, body)
}

func (f *fakeBucket) list(w http.ResponseWriter, r *http.Request) {
	f.prefixes = append(f.prefixes, r.URL.Query().Get("prefix"))

	page := 0
	if r.URL.Query().Get("continuation-token") == "next" {
		page = 1
	}
	keys := f.pages[page]
	truncated := page+1 < len(f.pages)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
	b.WriteString(`<Name>docs</Name>`)
	fmt.Fprintf(&b, `<KeyCount>%d</KeyCount><IsTruncated>%t</IsTruncated>`, len(keys), truncated)
	if truncated {
		b.WriteString(`<NextContinuationToken>next</NextContinuationToken>`)
	}
	for _, k := range keys {
		fmt.Fprintf(&b, `<Contents><Key>%s</Key><Size>%d</Size></Contents>`, k, len(f.objects[k]))
	}
	b.WriteString(`</ListBucketResult>`)

	w.Header().Set("Content-Type", "application/xml")
	fmt.Fprint(w, b.String())
}

func newTestConnector(t *testing.T, prefix string) (*Connector, *fakeBucket) {
	t.Helper()
	fake := &fakeBucket{
		objects: map[string]string{
			"reports/q1.pdf":   "%PDF",
			"reports/":         "",
			"notes/todo.md":    "# todo",
			"notes/readme.txt": "hello",
		},
		pages: [][]string{
			{"reports/", "reports/q1.pdf", "notes/todo.md"},
			{"notes/readme.txt"},
		},
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		Bucket:    "docs",
		Prefix:    prefix,
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	return c, fake
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestConnector_Name(t *testing.T) {
	c, _ := newTestConnector(t, "")
	assert.Equal(t, "s3", c.Name())
}

func TestConnector_List(t *testing.T) {
	c, fake := newTestConnector(t, "")

	refs, err := c.List(context.Background(), domain.SourceFilter{})
	require.NoError(t, err)

	require.Len(t, refs, 3)
	assert.Equal(t, domain.DocumentRef{ID: "reports/q1.pdf", Name: "q1.pdf", Extension: "pdf"}, refs[0])
	assert.Equal(t, "notes/todo.md", refs[1].ID)
	assert.Equal(t, "readme.txt", refs[2].Name)
	assert.Equal(t, []string{"", ""}, fake.prefixes)
}

func TestConnector_List_FilterAndFolder(t *testing.T) {
	c, fake := newTestConnector(t, "default/")

	refs, err := c.List(context.Background(), domain.SourceFilter{Extensions: []string{".MD"}})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "notes/todo.md", refs[0].ID)
	assert.Equal(t, "default/", fake.prefixes[0])

	_, err = c.List(context.Background(), domain.SourceFilter{Folder: "notes"})
	require.NoError(t, err)
	assert.Equal(t, "notes/", fake.prefixes[len(fake.prefixes)-1])
}

func TestConnector_Fetch(t *testing.T) {
	c, _ := newTestConnector(t, "")

	doc, err := c.Fetch(context.Background(), "notes/todo.md")
	require.NoError(t, err)

	assert.Equal(t, "notes/todo.md", doc.ID)
	assert.Equal(t, "todo.md", doc.Name)
	assert.Equal(t, "md", doc.Extension)
	assert.Equal(t, "# todo", string(doc.Content))
	assert.Equal(t, 2025, doc.ModifiedAt.Year())
}

func TestConnector_Fetch_Errors(t *testing.T) {
	c, _ := newTestConnector(t, "")
	ctx := context.Background()

	_, err := c.Fetch(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = c.Fetch(ctx, "missing.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, domain.IsTransient(err))

	_, err = c.Fetch(ctx, "broken.txt")
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify("op", context.Canceled), context.Canceled)
	assert.False(t, domain.IsTransient(classify("op", context.Canceled)))

	err := classify("op", errors.New("dial tcp: connection refused"))
	assert.True(t, domain.IsTransient(err))
	assert.Contains(t, err.Error(), "op")
}
