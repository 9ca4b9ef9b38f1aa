// Package indexer syncs parsed documents into storage and the search index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kiroku/internal/corpus"
	"github.com/hyperjump/kiroku/internal/frontmatter"
	"github.com/hyperjump/kiroku/internal/models"
	"github.com/hyperjump/kiroku/internal/search"
	"github.com/hyperjump/kiroku/internal/storage"
)

// Indexer keeps the document database and search index in step with the
// content files on disk.
type Indexer struct {
	storage storage.Storage
	index   search.Index
	logger  *zap.Logger // optional; when set, logs debug events
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets a logger for debug output (file synced, document removed, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(idx *Indexer) { idx.logger = l }
}

// New creates an indexer over the given storage and search index.
func New(store storage.Storage, index search.Index, opts ...Option) *Indexer {
	idx := &Indexer{storage: store, index: index}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// SyncDocument upserts one parsed document. Drafts are stored but never
// indexed for search, so they cannot surface in published results.
func (idx *Indexer) SyncDocument(ctx context.Context, doc *models.Document) error {
	if err := idx.storage.UpsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	if doc.Draft {
		// A document that just became a draft must also leave the index.
		if err := idx.index.Delete(ctx, doc.Slug); err != nil {
			return fmt.Errorf("failed to unindex draft: %w", err)
		}
		return nil
	}
	if err := idx.index.Index(ctx, doc); err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	return nil
}

// SyncFile parses the file at path and syncs it. Unchanged files (same
// mtime and size as stored) are skipped. allowedExts filters by extension
// when non-empty (case-insensitive, leading dot optional).
func (idx *Indexer) SyncFile(ctx context.Context, path string, allowedExts []string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	ext := filepath.Ext(absPath)
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", absPath)
	}
	if idx.unchanged(ctx, absPath, info) {
		if idx.logger != nil {
			idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		}
		return nil
	}
	source, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	doc, err := frontmatter.Parse(absPath, source)
	if err != nil {
		return err
	}
	doc.SourceModTime = info.ModTime()
	doc.SourceSize = info.Size()

	// A different file claiming an existing slug is an identity collision
	// and is always surfaced; there is no automatic winner.
	if existing, getErr := idx.storage.GetDocument(ctx, doc.Slug); getErr == nil && existing.Path != absPath {
		return &corpus.DuplicateIdentityError{Slug: doc.Slug, Paths: []string{existing.Path, absPath}}
	}

	// A rename of the slug leaves the old row behind; drop any document
	// previously loaded from this path under a different slug.
	if prev, getErr := idx.storage.GetDocumentByPath(ctx, absPath); getErr == nil && prev.Slug != doc.Slug {
		if err := idx.RemoveSlug(ctx, prev.Slug); err != nil {
			return err
		}
	}

	if err := idx.SyncDocument(ctx, doc); err != nil {
		return err
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer file synced", zap.String("path", absPath), zap.String("slug", doc.Slug))
	}
	return nil
}

func (idx *Indexer) unchanged(ctx context.Context, absPath string, info os.FileInfo) bool {
	doc, err := idx.storage.GetDocumentByPath(ctx, absPath)
	if err != nil {
		return false
	}
	return doc.SourceModTime.Equal(info.ModTime()) && doc.SourceSize == info.Size()
}

// SyncDirectory walks dir and syncs each matching regular file. Parse
// failures are logged and counted, never fatal: a watch-triggered resync
// must not die on one half-saved file. Returns files synced and skipped.
func (idx *Indexer) SyncDirectory(ctx context.Context, dir string, allowedExts []string) (synced, skipped int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, 0, fmt.Errorf("not a directory: %s", absDir)
	}
	runID := uuid.New().String()
	if idx.logger != nil {
		idx.logger.Debug("indexer sync starting", zap.String("run_id", runID), zap.String("dir", absDir))
	}
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if len(allowedExts) > 0 && !extensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		if syncErr := idx.SyncFile(ctx, path, allowedExts); syncErr != nil {
			if errors.Is(syncErr, frontmatter.ErrMalformedMetadata) {
				skipped++
				if idx.logger != nil {
					idx.logger.Warn("skipping malformed document",
						zap.String("run_id", runID), zap.String("path", path), zap.Error(syncErr))
				}
				return nil
			}
			return syncErr
		}
		synced++
		return nil
	})
	if idx.logger != nil {
		idx.logger.Debug("indexer sync finished",
			zap.String("run_id", runID), zap.Int("synced", synced), zap.Int("skipped", skipped))
	}
	return synced, skipped, err
}

// RemoveFile removes the document that was loaded from path.
func (idx *Indexer) RemoveFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	slug, err := idx.storage.DeleteDocumentByPath(ctx, absPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := idx.index.Delete(ctx, slug); err != nil {
		return fmt.Errorf("failed to delete from search index: %w", err)
	}
	if idx.logger != nil {
		idx.logger.Debug("indexer document removed", zap.String("path", absPath), zap.String("slug", slug))
	}
	return nil
}

// RemoveSlug removes a document from storage and the search index by slug.
func (idx *Indexer) RemoveSlug(ctx context.Context, slug string) error {
	if err := idx.storage.DeleteDocument(ctx, slug); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := idx.index.Delete(ctx, slug); err != nil {
		return fmt.Errorf("failed to delete from search index: %w", err)
	}
	return nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
