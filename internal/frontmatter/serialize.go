package frontmatter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kiroku/internal/models"
)

const delimiter = "---"

// Serialize writes doc back out as a front-mattered document file. Parsing
// the result yields an identical metadata record; body formatting is passed
// through untouched.
func Serialize(doc *models.Document) ([]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}

	env := envelope{
		Title:      doc.Title,
		Slug:       doc.Slug,
		Date:       doc.Date.Format(time.RFC3339),
		Draft:      doc.Draft,
		Categories: doc.Categories,
		Tags:       doc.Tags,
		Extra:      doc.Extra,
	}
	// showpagemeta defaults to true; only a false value is worth writing.
	if !doc.ShowPageMeta {
		f := false
		env.ShowPageMeta = &f
	}
	meta, err := yaml.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("serialize metadata: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter)
	buf.WriteByte('\n')
	buf.Write(meta)
	buf.WriteString(delimiter)
	buf.WriteByte('\n')
	if doc.Body != "" && !strings.HasPrefix(doc.Body, "\n") {
		buf.WriteByte('\n')
	}
	buf.WriteString(doc.Body)
	return buf.Bytes(), nil
}
