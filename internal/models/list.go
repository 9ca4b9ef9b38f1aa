package models

// ListOptions controls which documents a listing returns and in what window.
type ListOptions struct {
	// IncludeDrafts includes documents flagged draft: true. Off by default.
	IncludeDrafts bool `json:"include_drafts,omitempty"`
	// Category and Tag filter the listing when non-empty.
	Category string `json:"category,omitempty"`
	Tag      string `json:"tag,omitempty"`
	// Limit caps the number of documents returned; 0 means no cap.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Normalize clamps negative window values. A zero limit is kept as "no cap"
// so full-corpus listings (feeds, sitemaps) stay a single call.
func (o *ListOptions) Normalize() {
	if o.Limit < 0 {
		o.Limit = 0
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

// Matches reports whether doc passes the draft gate and filters.
func (o *ListOptions) Matches(doc *Document) bool {
	if doc.Draft && !o.IncludeDrafts {
		return false
	}
	if o.Category != "" && !doc.HasCategory(o.Category) {
		return false
	}
	if o.Tag != "" && !doc.HasTag(o.Tag) {
		return false
	}
	return true
}

// TermCount is one taxonomy term (category or tag) with its document count.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}
