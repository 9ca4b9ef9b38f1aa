package corpus

import (
	"iter"
	"sort"

	"github.com/hyperjump/kiroku/internal/models"
)

// List returns the corpus as a lazy, finite, restartable sequence: date
// descending, slug ascending on equal dates, drafts excluded unless
// opts.IncludeDrafts. The order is deterministic across runs. The sequence
// snapshots the corpus at call time, so iterating it twice yields the same
// documents even if files change in between.
func (c *Corpus) List(opts models.ListOptions) iter.Seq[*models.Document] {
	opts.Normalize()
	snapshot := c.sorted()
	return func(yield func(*models.Document) bool) {
		remaining := opts.Limit
		skip := opts.Offset
		for _, doc := range snapshot {
			if !opts.Matches(doc) {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			if !yield(doc) {
				return
			}
			if opts.Limit > 0 {
				remaining--
				if remaining == 0 {
					return
				}
			}
		}
	}
}

// Documents collects List into a slice.
func (c *Corpus) Documents(opts models.ListOptions) []*models.Document {
	var out []*models.Document
	for doc := range c.List(opts) {
		out = append(out, doc)
	}
	return out
}

// sorted returns all documents ordered by date descending with the slug as a
// stable tie-break, drafts included.
func (c *Corpus) sorted() []*models.Document {
	c.mu.RLock()
	docs := make([]*models.Document, 0, len(c.docs))
	for _, doc := range c.docs {
		docs = append(docs, doc)
	}
	c.mu.RUnlock()
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].Date.Equal(docs[j].Date) {
			return docs[i].Date.After(docs[j].Date)
		}
		return docs[i].Slug < docs[j].Slug
	})
	return docs
}
