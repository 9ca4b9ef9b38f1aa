package search

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/kiroku/internal/models"
)

// indexedDocument is the shape stored in Bleve. Tags and categories use the
// keyword analyzer so filters match whole terms ("database-cleaner" is one
// term, not two).
type indexedDocument struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Tags       []string `json:"tags"`
	Categories []string `json:"categories"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// An existing index is opened and reused so incremental sync works; remove
// the index directory to force a full re-index after a mapping change.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Standard analyzer (lowercase + tokenize, no stemming) so a query term
	// matches the exact word the author wrote.
	textMapping := bleve.NewTextFieldMapping()
	textMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textMapping)
	docMapping.AddFieldMappingsAt("body", textMapping)

	termMapping := bleve.NewTextFieldMapping()
	termMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("tags", termMapping)
	docMapping.AddFieldMappingsAt("categories", termMapping)

	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index indexes a document under its slug.
func (b *BleveIndex) Index(ctx context.Context, doc *models.Document) error {
	return b.index.Index(doc.Slug, indexedDocument{
		Title:      doc.Title,
		Body:       doc.Body,
		Tags:       doc.Tags,
		Categories: doc.Categories,
	})
}

// Delete removes a document from the index by slug.
func (b *BleveIndex) Delete(ctx context.Context, slug string) error {
	return b.index.Delete(slug)
}

// Search runs a match query over title and body, restricted by the term
// filters in opts, and returns up to limit results.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *Options) ([]*Result, error) {
	titleBoost := 1.0
	if opts != nil && opts.TitleBoost > 0 {
		titleBoost = opts.TitleBoost
	}

	titleQuery := bleve.NewMatchQuery(query)
	titleQuery.SetField("title")
	titleQuery.SetBoost(titleBoost)
	bodyQuery := bleve.NewMatchQuery(query)
	bodyQuery.SetField("body")

	var q blevequery.Query = bleve.NewDisjunctionQuery(titleQuery, bodyQuery)
	if opts != nil && (opts.Tag != "" || opts.Category != "") {
		conj := bleve.NewConjunctionQuery(q)
		if opts.Tag != "" {
			tq := bleve.NewTermQuery(opts.Tag)
			tq.SetField("tags")
			conj.AddQuery(tq)
		}
		if opts.Category != "" {
			cq := bleve.NewTermQuery(opts.Category)
			cq.SetField("categories")
			conj.AddQuery(cq)
		}
		q = conj
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{Slug: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// DocCount returns the number of indexed documents.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the underlying index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
