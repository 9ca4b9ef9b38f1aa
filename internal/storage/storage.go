// Package storage defines the persistence interface for the document corpus.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kiroku/internal/models"
)

// ErrNotFound is returned when no document matches the requested slug or path.
var ErrNotFound = errors.New("document not found")

// Storage defines document persistence operations. Documents are keyed by
// slug; the source path carries a unique index so path-based sync works too.
type Storage interface {
	UpsertDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, slug string) (*models.Document, error)
	GetDocumentByPath(ctx context.Context, path string) (*models.Document, error)
	DeleteDocument(ctx context.Context, slug string) error
	// DeleteDocumentByPath removes the document loaded from path and returns
	// its slug so callers can drop it from search indices as well.
	DeleteDocumentByPath(ctx context.Context, path string) (string, error)

	// ListDocuments returns documents ordered by date descending, slug
	// ascending on equal dates, honoring the draft gate and filters in opts.
	ListDocuments(ctx context.Context, opts models.ListOptions) ([]*models.Document, error)
	CountDocuments(ctx context.Context, includeDrafts bool) (int64, error)

	// Categories and Tags return taxonomy terms with document counts,
	// most-used first, drafts excluded.
	Categories(ctx context.Context) ([]models.TermCount, error)
	Tags(ctx context.Context) ([]models.TermCount, error)

	Close() error
}
