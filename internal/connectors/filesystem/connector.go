// Package filesystem provides a DocumentSource over a local directory tree.
// Document IDs are slash-separated paths relative to the root.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Connector implements the interfaces.
var (
	_ driven.DocumentSource  = (*Connector)(nil)
	_ driven.IDCanonicaliser = (*Connector)(nil)
)

// MaxFileSize bounds the size of a fetched file (64MB).
const MaxFileSize = 64 * 1024 * 1024

// Connector lists and reads files under a root directory. Hidden files and
// directories are skipped.
type Connector struct {
	rootPath string
}

// New creates a filesystem connector rooted at rootPath.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// Name returns "filesystem".
func (c *Connector) Name() string {
	return string(domain.SourceFilesystem)
}

// Validate checks that the root exists and is a directory.
func (c *Connector) Validate() error {
	info, err := os.Stat(c.rootPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: root %s does not exist", domain.ErrNotFound, c.rootPath)
	}
	if err != nil {
		return fmt.Errorf("stat root %s: %w", c.rootPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root %s is not a directory", domain.ErrInvalidConfig, c.rootPath)
	}
	return nil
}

// List walks the root, or the filter's folder beneath it, in lexical order.
func (c *Connector) List(ctx context.Context, filter domain.SourceFilter) ([]domain.DocumentRef, error) {
	base := c.rootPath
	if filter.Folder != "" {
		folder, err := NormaliseID(filter.Folder)
		if err != nil {
			return nil, err
		}
		base = filepath.Join(c.rootPath, filepath.FromSlash(folder))
	}
	if _, err := os.Stat(base); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: directory %s does not exist", domain.ErrNotFound, base)
	}

	var refs []domain.DocumentRef
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(c.rootPath, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && isHidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		ref := domain.DocumentRef{ID: rel, Name: d.Name(), Extension: domain.ExtensionOf(d.Name())}
		if filter.Matches(ref) {
			refs = append(refs, ref)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", base, err)
	}
	return refs, nil
}

// CanonicalID returns the slash-separated path of id relative to the root,
// so "./docs/a.txt", "file://docs/a.txt" and `docs\a.txt` all name "docs/a.txt".
func (c *Connector) CanonicalID(id string) (string, error) {
	return NormaliseID(id)
}

// Fetch reads a file by its relative ID.
func (c *Connector) Fetch(ctx context.Context, id string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := NormaliseID(id)
	if err != nil {
		return nil, err
	}
	full := filepath.Join(c.rootPath, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", id, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidArgument, id)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrInvalidArgument, id, info.Size(), MaxFileSize)
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", id, err)
	}

	name := filepath.Base(full)
	return &domain.Document{
		ID:         rel,
		Name:       name,
		Extension:  domain.ExtensionOf(name),
		Content:    content,
		ModifiedAt: info.ModTime().UTC(),
	}, nil
}
