package server

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/kiroku/internal/models"
	"go.uber.org/zap"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title      string   `xml:"title"`
	Link       string   `xml:"link"`
	Categories []string `xml:"category,omitempty"`
	PubDate    string   `xml:"pubDate"`
	GUID       string   `xml:"guid"`
}

const feedLimit = 20

// handleFeed serves the RSS 2.0 feed of the most recent published documents.
// Drafts never appear here regardless of the config draft gate.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	docs, err := s.storage.ListDocuments(r.Context(), models.ListOptions{Limit: feedLimit})
	if err != nil {
		s.logger.Error("feed: list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	base := s.config.Site.URL
	items := make([]rssItem, 0, len(docs))
	for _, doc := range docs {
		docURL := buildURL(base, "posts", doc.Slug)
		items = append(items, rssItem{
			Title:      doc.Title,
			Link:       docURL,
			Categories: doc.Categories,
			PubDate:    doc.Date.Format(time.RFC1123Z),
			GUID:       docURL,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       s.config.Site.Name,
			Link:        base,
			Description: s.config.Site.Description,
			Items:       items,
		},
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(feed)
}

// buildURL joins a base URL with path segments, tolerating stray slashes.
func buildURL(base string, segments ...string) string {
	parts := []string{strings.TrimRight(base, "/")}
	for _, seg := range segments {
		parts = append(parts, strings.Trim(seg, "/"))
	}
	return strings.Join(parts, "/")
}
