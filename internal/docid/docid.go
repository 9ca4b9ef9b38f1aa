// Package docid derives the stable identity (slug) of a document.
package docid

import (
	"fmt"
	"path/filepath"
	"strings"

	slug "github.com/goliatone/go-slug"
)

// Derive returns the slug identifying the document at path. An explicit
// front-matter slug wins; otherwise the slug is normalized from the file's
// base name without extension. Same input always yields the same slug, so
// re-syncing a file updates the same document.
func Derive(explicit, path string) (string, error) {
	if explicit != "" {
		normalized, err := slug.Normalize(explicit)
		if err != nil {
			return "", fmt.Errorf("normalize explicit slug %q: %w", explicit, err)
		}
		return normalized, nil
	}
	base := filepath.Base(filepath.Clean(path))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		return "", fmt.Errorf("cannot derive slug from path %q", path)
	}
	normalized, err := slug.Normalize(base)
	if err != nil {
		return "", fmt.Errorf("normalize slug from %q: %w", base, err)
	}
	return normalized, nil
}

// IsValid reports whether s is already a normalized slug.
func IsValid(s string) bool {
	return slug.IsValid(s)
}
