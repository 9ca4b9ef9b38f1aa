package server

import (
	"encoding/xml"
	"net/http"

	"github.com/hyperjump/kiroku/internal/models"
	"go.uber.org/zap"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// handleSitemap serves a sitemap of every published document plus the site
// root. Drafts are excluded.
func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	docs, err := s.storage.ListDocuments(r.Context(), models.ListOptions{})
	if err != nil {
		s.logger.Error("sitemap: list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	base := s.config.Site.URL
	urls := []sitemapURL{{Loc: buildURL(base)}}
	for _, doc := range docs {
		urls = append(urls, sitemapURL{
			Loc:     buildURL(base, "posts", doc.Slug),
			LastMod: doc.Date.Format("2006-01-02"),
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(sitemap)
}
