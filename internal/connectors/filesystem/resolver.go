package filesystem

import (
	"fmt"
	"path"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// NormaliseID converts a document ID to the slash-separated path relative to
// the source root. It accepts file:// URIs and backslash separators. IDs that
// are absolute or climb out of the root are rejected.
func NormaliseID(id string) (string, error) {
	id = strings.TrimPrefix(id, "file://")
	id = strings.ReplaceAll(id, "\\", "/")
	if id == "" {
		return "", fmt.Errorf("%w: empty document id", domain.ErrInvalidArgument)
	}
	if strings.HasPrefix(id, "/") {
		return "", fmt.Errorf("%w: document id %q must be relative to the source root", domain.ErrInvalidArgument, id)
	}

	clean := path.Clean(id)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: document id %q escapes the source root", domain.ErrInvalidArgument, id)
	}
	return clean, nil
}

// isHidden reports whether any element of p starts with a dot.
// "." and ".." are not hidden.
func isHidden(p string) bool {
	for _, part := range strings.Split(strings.ReplaceAll(p, "\\", "/"), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
