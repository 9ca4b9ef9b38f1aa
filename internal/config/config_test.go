package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
site:
  name: "Notes on Rails"
  url: "https://example.com"
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Site.Name != "Notes on Rails" {
		t.Errorf("site name = %q", cfg.Site.Name)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Content.OnError != "skip" {
		t.Errorf("on_error should default to skip, got %q", cfg.Content.OnError)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./data/db/documents.db"
content:
  directories: ["./content/post"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "documents.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if len(cfg.Content.Directories) != 1 {
		t.Fatalf("content directories: got %d", len(cfg.Content.Directories))
	}
	wantContent := filepath.Join(dir, "content", "post")
	if cfg.Content.Directories[0] != wantContent {
		t.Errorf("content directory = %s, want %s", cfg.Content.Directories[0], wantContent)
	}
}

func TestLoad_badOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
content:
  on_error: "ignore"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown on_error value")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	if err := ApplyDefaults(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Site.URL == "" {
		t.Error("site url should have a default")
	}
	if len(cfg.Content.Extensions) != 2 || cfg.Content.Extensions[0] != ".md" {
		t.Errorf("content extensions: got %v", cfg.Content.Extensions)
	}
	if cfg.Content.IncludeDrafts {
		t.Error("include_drafts should default to false")
	}
}

func TestApplyDefaults_RecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Content: ContentConfig{Directories: []string{"/tmp/content"}}}
	if err := ApplyDefaults(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Content.Recursive == nil || !*cfg.Content.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestContentConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		c := &ContentConfig{}
		if !c.RecursiveOrDefault() {
			t.Error("RecursiveOrDefault() = false, want true")
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		c := &ContentConfig{Recursive: &f}
		if c.RecursiveOrDefault() {
			t.Error("RecursiveOrDefault() = true, want false")
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
