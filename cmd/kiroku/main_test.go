package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kiroku/internal/cli"
	"github.com/hyperjump/kiroku/internal/config"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    cli.OutputFormat
		wantErr bool
	}{
		{"", cli.OutputText, false},
		{"text", cli.OutputText, false},
		{"json", cli.OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := parseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHasExtension(t *testing.T) {
	exts := []string{".md", ".markdown"}
	if !hasExtension("post.md", exts) {
		t.Error("post.md should match")
	}
	if !hasExtension("POST.MD", exts) {
		t.Error("extension match should be case-insensitive")
	}
	if hasExtension("notes.txt", exts) {
		t.Error("notes.txt should not match")
	}
}

func TestCheckCorpus(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("good.md", "---\ntitle: Good\ndate: 2017-10-31\n---\nbody\n")
	write("untitled.md", "---\ndate: 2017-10-31\n---\nbody\n")
	write("dupe-a.md", "---\ntitle: A\nslug: taken\ndate: 2017-10-31\n---\nbody\n")
	write("dupe-b.md", "---\ntitle: B\nslug: taken\ndate: 2017-11-01\n---\nbody\n")
	write("ignored.txt", "not a document")

	cfg := &config.Config{}
	cfg.Content.Directories = []string{dir}
	cfg.Content.Extensions = []string{".md"}

	report, err := checkCorpus(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if report.Loaded != 2 {
		t.Errorf("Loaded = %d, want 2", report.Loaded)
	}
	if len(report.Problems) != 2 {
		t.Fatalf("Problems = %+v, want 2 entries", report.Problems)
	}
	if report.OK() {
		t.Error("OK() should be false")
	}
}

func TestLoadConfigFallback(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("site:\n  name: Fallback\n"), 0644); err != nil {
		t.Fatal(err)
	}
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(oldWd)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Site.Name != "Fallback" {
		t.Errorf("Site.Name = %q", cfg.Site.Name)
	}
	if filepath.Base(resolved) != "config.yaml" {
		t.Errorf("resolved = %q", resolved)
	}
}
