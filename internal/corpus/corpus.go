// Package corpus loads a directory tree of front-mattered documents and
// lists them deterministically.
package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/kiroku/internal/frontmatter"
	"github.com/hyperjump/kiroku/internal/models"
)

// ErrorPolicy decides what happens when a single document fails to parse
// during a load: skip it with a warning, or fail the whole load. The policy
// is an explicit configuration choice, never a silent default behavior.
type ErrorPolicy string

const (
	// PolicySkip logs the malformed document and continues loading.
	PolicySkip ErrorPolicy = "skip"
	// PolicyFail aborts the load on the first malformed document.
	PolicyFail ErrorPolicy = "fail"
)

var defaultExtensions = []string{".md", ".markdown"}

// Corpus is the full in-memory collection of parsed documents, keyed by slug.
type Corpus struct {
	mu   sync.RWMutex
	docs map[string]*models.Document

	policy     ErrorPolicy
	extensions []string
	logger     *zap.Logger
}

// Option configures a Corpus.
type Option func(*Corpus)

// WithLogger sets a logger for load warnings (skipped documents, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(c *Corpus) { c.logger = l }
}

// WithErrorPolicy sets the per-document parse failure policy.
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(c *Corpus) { c.policy = p }
}

// WithExtensions sets which file extensions count as documents.
func WithExtensions(exts []string) Option {
	return func(c *Corpus) {
		if len(exts) > 0 {
			c.extensions = exts
		}
	}
}

// New creates an empty corpus. Default policy is PolicySkip with Markdown
// extensions.
func New(opts ...Option) *Corpus {
	c := &Corpus{
		docs:       make(map[string]*models.Document),
		policy:     PolicySkip,
		extensions: defaultExtensions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadDirectories walks each root and parses every matching file into the
// corpus. Each parse is independent; results merge deterministically through
// the sort in List regardless of walk order. Returns the number of documents
// loaded and the number skipped under PolicySkip.
func (c *Corpus) LoadDirectories(roots []string) (loaded, skipped int, err error) {
	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return loaded, skipped, fmt.Errorf("absolute path: %w", err)
		}
		walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !c.matchExtension(path) {
				return nil
			}
			if loadErr := c.LoadFile(path); loadErr != nil {
				if c.policy == PolicySkip && !isDuplicate(loadErr) {
					skipped++
					if c.logger != nil {
						c.logger.Warn("skipping malformed document", zap.String("path", path), zap.Error(loadErr))
					}
					return nil
				}
				return loadErr
			}
			loaded++
			return nil
		})
		if walkErr != nil {
			return loaded, skipped, walkErr
		}
	}
	return loaded, skipped, nil
}

// LoadFile reads, parses, and adds one document. A duplicate slug is always
// an error regardless of policy.
func (c *Corpus) LoadFile(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat document: %w", err)
	}
	doc, err := frontmatter.Parse(path, source)
	if err != nil {
		return err
	}
	doc.SourceModTime = info.ModTime()
	doc.SourceSize = info.Size()
	return c.Add(doc)
}

// Add inserts a parsed document, rejecting slug collisions.
func (c *Corpus) Add(doc *models.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.docs[doc.Slug]; ok && existing.Path != doc.Path {
		return &DuplicateIdentityError{Slug: doc.Slug, Paths: []string{existing.Path, doc.Path}}
	}
	c.docs[doc.Slug] = doc
	return nil
}

// Get returns the document for slug, or false when absent.
func (c *Corpus) Get(slug string) (*models.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[slug]
	return doc, ok
}

// Remove drops the document for slug. Removal is whole-document.
func (c *Corpus) Remove(slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, slug)
}

// RemoveByPath drops the document loaded from path, returning its slug.
func (c *Corpus) RemoveByPath(path string) (string, bool) {
	clean := filepath.Clean(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	for slug, doc := range c.docs {
		if filepath.Clean(doc.Path) == clean {
			delete(c.docs, slug)
			return slug, true
		}
	}
	return "", false
}

// Len returns the number of documents in the corpus, drafts included.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func (c *Corpus) matchExtension(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range c.extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func isDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateIdentity)
}
