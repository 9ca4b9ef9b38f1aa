// Package integration exercises the full pipeline: content files on disk,
// sync into storage and search index, and the HTTP API on top.
package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/kiroku/internal/config"
	"github.com/hyperjump/kiroku/internal/indexer"
	"github.com/hyperjump/kiroku/internal/search"
	"github.com/hyperjump/kiroku/internal/server"
	"github.com/hyperjump/kiroku/internal/storage"
	"go.uber.org/zap"
)

const postNewer = `---
title: Release Announcement
date: 2017-11-02T08:00:00-05:00
categories: [announcements]
---
We shipped the new release today.
`

const postOlder = `---
title: Database Cleaning Patterns
date: 2017-10-31T00:00:00-05:00
tags: [rspec, database]
---
Use transactions to keep the test database clean.
`

const postDraft = `---
title: Unfinished Thoughts
date: 2017-10-31T12:00:00-05:00
draft: true
---
Not ready for the world yet.
`

func TestCorpusPipeline(t *testing.T) {
	dir := t.TempDir()
	contentDir := filepath.Join(dir, "content")
	if err := os.MkdirAll(contentDir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, body := range map[string]string{
		"release.md":  postNewer,
		"database.md": postOlder,
		"thoughts.md": postDraft,
	} {
		if err := os.WriteFile(filepath.Join(contentDir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{
		Site: config.SiteConfig{
			Name: "Integration Test Site",
			URL:  "https://example.test",
		},
		Content: config.ContentConfig{
			Directories: []string{contentDir},
			Extensions:  []string{".md"},
		},
		Storage: config.StorageConfig{
			DatabasePath:   filepath.Join(dir, "docs.db"),
			BleveIndexPath: filepath.Join(dir, "bleve"),
		},
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	index, err := search.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		t.Fatal(err)
	}
	defer index.Close()

	ing := indexer.New(store, index)
	ctx := context.Background()
	synced, skipped, err := ing.SyncDirectory(ctx, contentDir, cfg.Content.Extensions)
	if err != nil {
		t.Fatal(err)
	}
	if synced != 3 || skipped != 0 {
		t.Fatalf("synced = %d, skipped = %d; want 3, 0", synced, skipped)
	}

	srv := server.NewServer(store, index, ing, cfg, zap.NewNop())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	t.Run("listing excludes drafts and orders by date", func(t *testing.T) {
		var body struct {
			Documents []struct {
				Slug string `json:"slug"`
			} `json:"documents"`
		}
		getJSON(t, ts.URL+"/api/v1/documents", &body)
		if len(body.Documents) != 2 {
			t.Fatalf("got %d documents, want 2", len(body.Documents))
		}
		if body.Documents[0].Slug != "release" || body.Documents[1].Slug != "database" {
			t.Errorf("order = [%s, %s], want [release, database]",
				body.Documents[0].Slug, body.Documents[1].Slug)
		}
	})

	t.Run("search finds published body text", func(t *testing.T) {
		var body struct {
			Results []struct {
				Document struct {
					Slug string `json:"slug"`
				} `json:"document"`
			} `json:"results"`
		}
		getJSON(t, ts.URL+"/api/v1/search?q=transactions", &body)
		if len(body.Results) != 1 || body.Results[0].Document.Slug != "database" {
			t.Errorf("results = %+v", body.Results)
		}
	})

	t.Run("draft is retrievable but not searchable", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/documents/thoughts")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("draft fetch status = %d", resp.StatusCode)
		}

		var body struct {
			Results []any `json:"results"`
		}
		getJSON(t, ts.URL+"/api/v1/search?q=ready", &body)
		if len(body.Results) != 0 {
			t.Errorf("draft leaked into search: %+v", body.Results)
		}
	})

	t.Run("feed lists published posts newest first", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/feed.xml")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		feed := string(raw)
		if !strings.Contains(feed, "Release Announcement") || !strings.Contains(feed, "Database Cleaning Patterns") {
			t.Errorf("feed missing posts:\n%s", feed)
		}
		if strings.Contains(feed, "Unfinished Thoughts") {
			t.Error("draft leaked into feed")
		}
		if strings.Index(feed, "Release Announcement") > strings.Index(feed, "Database Cleaning Patterns") {
			t.Error("feed order wrong")
		}
	})

	t.Run("file edits re-sync through the indexer", func(t *testing.T) {
		updated := strings.Replace(postOlder, "title: Database Cleaning Patterns", "title: Database Cleaning, Revised", 1)
		path := filepath.Join(contentDir, "database.md")
		if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
			t.Fatal(err)
		}
		if err := ing.SyncFile(ctx, path, cfg.Content.Extensions); err != nil {
			t.Fatal(err)
		}
		var doc struct {
			Title string `json:"title"`
		}
		getJSON(t, ts.URL+"/api/v1/documents/database", &doc)
		if doc.Title != "Database Cleaning, Revised" {
			t.Errorf("title after re-sync = %q", doc.Title)
		}
	})

	t.Run("file removal drops the document", func(t *testing.T) {
		path := filepath.Join(contentDir, "release.md")
		if err := os.Remove(path); err != nil {
			t.Fatal(err)
		}
		if err := ing.RemoveFile(ctx, path); err != nil {
			t.Fatal(err)
		}
		resp, err := http.Get(ts.URL + "/api/v1/documents/release")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("removed document status = %d, want 404", resp.StatusCode)
		}
	})
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}
