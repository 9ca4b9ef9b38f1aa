// Package cli provides output formatting for the kiroku command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kiroku/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteDocuments writes a document listing to w in the given format.
func WriteDocuments(w io.Writer, docs []*models.Document, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}
	for _, doc := range docs {
		marker := " "
		if doc.Draft {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s  %-30s %s\n", marker, doc.Date.Format("2006-01-02"), doc.Slug, Truncate(doc.Title, 60))
		if len(doc.Categories) > 0 {
			fmt.Fprintf(w, "               categories: %s\n", strings.Join(doc.Categories, ", "))
		}
		if len(doc.Tags) > 0 {
			fmt.Fprintf(w, "               tags: %s\n", strings.Join(doc.Tags, ", "))
		}
	}
	fmt.Fprintf(w, "\n%d documents\n", len(docs))
	return nil
}

// SearchHit pairs a matched document with its relevance score.
type SearchHit struct {
	Document *models.Document `json:"document"`
	Score    float64          `json:"score"`
}

// WriteSearchResults writes search hits to w in the given format.
func WriteSearchResults(w io.Writer, query string, hits []SearchHit, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"query":   query,
			"results": hits,
			"count":   len(hits),
		})
	}
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(hits), query)
	for i, hit := range hits {
		fmt.Fprintf(w, "%2d. %s  (score %.4f)\n", i+1, hit.Document.Slug, hit.Score)
		fmt.Fprintf(w, "    %s — %s\n", hit.Document.Date.Format("2006-01-02"), hit.Document.Title)
		if body := strings.TrimSpace(hit.Document.Body); body != "" {
			fmt.Fprintf(w, "    %s\n", TruncateWords(body, 30))
		}
		fmt.Fprintln(w)
	}
	return nil
}

// CheckProblem is one document the corpus check could not accept.
type CheckProblem struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// CheckReport summarizes a corpus validation pass.
type CheckReport struct {
	Loaded   int            `json:"loaded"`
	Problems []CheckProblem `json:"problems,omitempty"`
}

// OK reports whether the check found no problems.
func (r *CheckReport) OK() bool {
	return len(r.Problems) == 0
}

// WriteCheckReport writes a corpus validation report to w in the given format.
func WriteCheckReport(w io.Writer, report *CheckReport, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprintf(w, "%d documents loaded, %d problems\n", report.Loaded, len(report.Problems))
	for _, p := range report.Problems {
		fmt.Fprintf(w, "  %s: %s\n", p.Path, p.Error)
	}
	if report.OK() {
		fmt.Fprintln(w, "corpus is clean")
	}
	return nil
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
