// Package models defines core data structures for documents and listings.
package models

import (
	"fmt"
	"time"
)

// Document represents one authored unit of content: front-matter metadata
// plus the Markdown body that follows it. The body is opaque to the rest of
// the system and is stored verbatim.
type Document struct {
	// Slug is the document identity: the explicit front-matter slug when
	// present, otherwise derived from the source file name. Unique per corpus.
	Slug string `json:"slug" db:"slug"`
	// Path is the source file the document was loaded from.
	Path       string         `json:"path,omitempty" db:"path"`
	Title      string         `json:"title" db:"title"`
	Date       time.Time      `json:"date" db:"date"`
	Draft      bool           `json:"draft,omitempty" db:"draft"`
	Categories []string       `json:"categories,omitempty" db:"categories"`
	Tags       []string       `json:"tags,omitempty" db:"tags"`
	// ShowPageMeta is passed through to renderers; defaults to true.
	ShowPageMeta bool `json:"showpagemeta" db:"showpagemeta"`
	// Extra holds unrecognized front-matter keys, preserved opaquely so the
	// metadata block can grow new fields without breaking the parser.
	Extra map[string]any `json:"extra,omitempty" db:"extra"`
	Body  string         `json:"body,omitempty" db:"body"`

	// Source file stats, used for incremental sync (skip unchanged files).
	SourceModTime time.Time `json:"-" db:"source_mtime"`
	SourceSize    int64     `json:"-" db:"source_size"`
}

// Validate checks the invariants every stored document must hold.
func (d *Document) Validate() error {
	if d.Slug == "" {
		return fmt.Errorf("document has no slug")
	}
	if d.Title == "" {
		return fmt.Errorf("document %q has no title", d.Slug)
	}
	if d.Date.IsZero() {
		return fmt.Errorf("document %q has no date", d.Slug)
	}
	return nil
}

// HasTag reports whether tag is in the document's tag set.
func (d *Document) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasCategory reports whether category is in the document's category set.
func (d *Document) HasCategory(category string) bool {
	for _, c := range d.Categories {
		if c == category {
			return true
		}
	}
	return false
}
