package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/kiroku/internal/models"
	"github.com/hyperjump/kiroku/internal/search"
	"github.com/hyperjump/kiroku/internal/storage"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listOptionsFromQuery builds ListOptions from query parameters. The drafts
// gate is the config default unless the request says otherwise.
func (s *Server) listOptionsFromQuery(r *http.Request) models.ListOptions {
	q := r.URL.Query()
	opts := models.ListOptions{
		IncludeDrafts: s.config.Content.IncludeDrafts,
		Category:      q.Get("category"),
		Tag:           q.Get("tag"),
	}
	if v := q.Get("drafts"); v != "" {
		opts.IncludeDrafts = v == "true" || v == "1"
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil {
		opts.Offset = n
	}
	return opts
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	opts := s.listOptionsFromQuery(r)
	docs, err := s.storage.ListDocuments(r.Context(), opts)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountDocuments(r.Context(), opts.IncludeDrafts)
	if err != nil {
		s.logger.Error("count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
		"total":     total,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	doc, err := s.storage.GetDocument(r.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("get document failed", zap.String("slug", slug), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleRenderDocument(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	doc, err := s.storage.GetDocument(r.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	html, err := s.renderer.Render(doc)
	if err != nil {
		s.logger.Error("render failed", zap.String("slug", slug), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 10
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		limit = n
	}
	opts := &search.Options{
		Tag:      q.Get("tag"),
		Category: q.Get("category"),
	}
	s.logger.Debug("search request", zap.String("query", query), zap.Int("limit", limit))
	results, err := s.index.Search(r.Context(), query, limit, opts)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Hydrate matches from storage so callers get full metadata, not
	// just slug and score.
	type hit struct {
		Document *models.Document `json:"document"`
		Score    float64          `json:"score"`
	}
	hits := make([]hit, 0, len(results))
	for _, res := range results {
		doc, err := s.storage.GetDocument(r.Context(), res.Slug)
		if err != nil {
			// Index and store can briefly disagree during a sync.
			continue
		}
		hits = append(hits, hit{Document: doc, Score: res.Score})
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": hits,
		"count":   len(hits),
	})
}

func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categories, err := s.storage.Categories(ctx)
	if err != nil {
		s.logger.Error("taxonomy: categories failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tags, err := s.storage.Tags(ctx)
	if err != nil {
		s.logger.Error("taxonomy: tags failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		"tags":       tags,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	published, err := s.storage.CountDocuments(ctx, false)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountDocuments(ctx, true)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	indexed, err := s.index.DocCount()
	if err != nil {
		s.logger.Error("status: index count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]any{
		"documents": published,
		"drafts":    total - published,
		"indexed":   indexed,
		"config": map[string]any{
			"directories":    s.config.Content.Directories,
			"extensions":     s.config.Content.Extensions,
			"include_drafts": s.config.Content.IncludeDrafts,
			"on_error":       s.config.Content.OnError,
			"database_path":  s.config.Storage.DatabasePath,
			"index_path":     s.config.Storage.BleveIndexPath,
		},
	}
	if bytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Storage.BleveIndexPath); err == nil {
		resp["disk_usage_bytes"] = bytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResync(w http.ResponseWriter, r *http.Request) {
	if s.indexer == nil {
		s.respondError(w, http.StatusNotImplemented, "resync not enabled")
		return
	}
	var synced, skipped int
	for _, dir := range s.config.Content.Directories {
		n, sk, err := s.indexer.SyncDirectory(r.Context(), dir, s.config.Content.Extensions)
		if err != nil {
			s.logger.Error("resync failed", zap.String("dir", dir), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		synced += n
		skipped += sk
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":  "resynced",
		"synced":  synced,
		"skipped": skipped,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
