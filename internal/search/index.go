// Package search provides full-text search over the published corpus.
package search

import (
	"context"

	"github.com/hyperjump/kiroku/internal/models"
)

// Options are optional search parameters. Nil means use defaults.
type Options struct {
	// TitleBoost multiplies the score contribution from matches in the title.
	// Values > 1 make title matches rank higher. Use 1.0 for no boost.
	TitleBoost float64
	// Tag and Category restrict hits to documents carrying the exact term.
	Tag      string
	Category string
}

// Result is a single search hit.
type Result struct {
	Slug  string  `json:"slug"`
	Score float64 `json:"score"`
}

// Index defines full-text search operations over documents. Only published
// documents are indexed; drafts never appear in search results.
type Index interface {
	Index(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, slug string) error
	Search(ctx context.Context, query string, limit int, opts *Options) ([]*Result, error)
	// DocCount returns the total number of indexed documents.
	DocCount() (uint64, error)
	Close() error
}
