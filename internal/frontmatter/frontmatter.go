// Package frontmatter parses and serializes the YAML metadata block that
// prefixes every document body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	adrg "github.com/adrg/frontmatter"

	"github.com/hyperjump/kiroku/internal/docid"
	"github.com/hyperjump/kiroku/internal/models"
)

// ErrMalformedMetadata matches any metadata failure via errors.Is.
var ErrMalformedMetadata = errors.New("malformed metadata")

// MalformedMetadataError reports a document whose metadata block is missing,
// missing a required field, or carries a value of the wrong shape.
type MalformedMetadataError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedMetadataError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed metadata: %s", e.Reason)
	}
	return fmt.Sprintf("malformed metadata in %s: %s", e.Path, e.Reason)
}

func (e *MalformedMetadataError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformedMetadata
}

func (e *MalformedMetadataError) Is(target error) bool {
	return target == ErrMalformedMetadata
}

// dateLayouts are the accepted date forms, tried in order. The canonical form
// is RFC 3339 with a timezone offset; date-only values are midnight UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// envelope is the wire shape of the metadata block. Unknown keys fall into
// Extra via the inline map so the block can grow fields without breaking us.
type envelope struct {
	Title        string         `yaml:"title"`
	Slug         string         `yaml:"slug,omitempty"`
	Date         string         `yaml:"date"`
	Draft        bool           `yaml:"draft,omitempty"`
	Categories   []string       `yaml:"categories,omitempty"`
	Tags         []string       `yaml:"tags,omitempty"`
	ShowPageMeta *bool          `yaml:"showpagemeta,omitempty"`
	Extra        map[string]any `yaml:",inline"`
}

// Parse extracts the metadata block and body from source, which is one whole
// document file read from path (path is only used in error messages and as
// Document.Path). It is a pure transformation: no side effects, and the body
// is returned verbatim.
func Parse(path string, source []byte) (*models.Document, error) {
	var env envelope
	body, err := adrg.MustParse(bytes.NewReader(source), &env)
	if err != nil {
		return nil, &MalformedMetadataError{Path: path, Reason: "invalid front matter block", Err: err}
	}
	if strings.TrimSpace(env.Title) == "" {
		return nil, &MalformedMetadataError{Path: path, Reason: "missing required field: title"}
	}
	if env.Date == "" {
		return nil, &MalformedMetadataError{Path: path, Reason: "missing required field: date"}
	}
	date, err := parseDate(env.Date)
	if err != nil {
		return nil, &MalformedMetadataError{Path: path, Reason: fmt.Sprintf("unparsable date %q", env.Date), Err: err}
	}
	slug, err := docid.Derive(env.Slug, path)
	if err != nil {
		return nil, &MalformedMetadataError{Path: path, Reason: "cannot derive slug", Err: err}
	}

	showMeta := true
	if env.ShowPageMeta != nil {
		showMeta = *env.ShowPageMeta
	}

	return &models.Document{
		Slug:         slug,
		Path:         path,
		Title:        env.Title,
		Date:         date,
		Draft:        env.Draft,
		Categories:   dedupe(env.Categories),
		Tags:         dedupe(env.Tags),
		ShowPageMeta: showMeta,
		Extra:        env.Extra,
		Body:         string(body),
	}, nil
}

func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// dedupe removes duplicate entries preserving first-seen order. Categories
// and tags are sets; a repeated entry in the source is authoring noise.
func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
