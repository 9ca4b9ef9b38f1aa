// Package render converts document bodies from Markdown to HTML. It is the
// consuming side of the corpus: it accepts parsed documents and never
// mutates them — bodies stay stored verbatim.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/hyperjump/kiroku/internal/models"
)

// Renderer renders Markdown bodies to HTML. It is stateless, so a single
// instance can be shared across requests without locking.
type Renderer struct {
	engine goldmark.Markdown
}

// New returns a renderer with GFM extensions (tables, strikethrough,
// autolinks) and auto heading IDs.
func New() *Renderer {
	return &Renderer{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Render returns the HTML for doc's body.
func (r *Renderer) Render(doc *models.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(doc.Body), &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", doc.Slug, err)
	}
	return buf.Bytes(), nil
}
