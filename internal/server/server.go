// Package server provides the HTTP API for kiroku: document listings,
// rendered pages, search, taxonomy, feed, and sitemap.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kiroku/internal/config"
	"github.com/hyperjump/kiroku/internal/indexer"
	"github.com/hyperjump/kiroku/internal/render"
	"github.com/hyperjump/kiroku/internal/search"
	"github.com/hyperjump/kiroku/internal/storage"
	"go.uber.org/zap"
)

// Server is the HTTP server for the kiroku API.
type Server struct {
	storage  storage.Storage
	index    search.Index
	indexer  *indexer.Indexer
	renderer *render.Renderer
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	store storage.Storage,
	index search.Index,
	idx *indexer.Indexer,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		storage:  store,
		index:    index,
		indexer:  idx,
		renderer: render.New(),
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/feed.xml", s.handleFeed)
	r.Get("/sitemap.xml", s.handleSitemap)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{slug}", s.handleGetDocument)
		r.Get("/documents/{slug}/html", s.handleRenderDocument)
		r.Get("/search", s.handleSearch)
		r.Get("/taxonomy", s.handleTaxonomy)
		r.Get("/status", s.handleStatus)
		r.Post("/resync", s.handleResync)
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
