package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/kiroku/internal/docid"
	"github.com/hyperjump/kiroku/internal/frontmatter"
	"github.com/hyperjump/kiroku/internal/models"
)

// runNew scaffolds a new draft document: front matter with the given title,
// today's date, draft: true, and an empty body. The file lands in the first
// configured content directory unless --dir says otherwise.
func runNew() {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dir := fs.String("dir", "", "target directory (default: first configured content directory)")
	explicitSlug := fs.String("slug", "", "explicit slug (default: derived from title)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kiroku new [flags] <title>")
		os.Exit(1)
	}
	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		fmt.Println("Usage: kiroku new [flags] <title>")
		os.Exit(1)
	}

	targetDir := *dir
	if targetDir == "" {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		if len(cfg.Content.Directories) == 0 {
			fmt.Fprintln(os.Stderr, "No content directories configured; use --dir")
			os.Exit(1)
		}
		targetDir = cfg.Content.Directories[0]
	}

	seed := *explicitSlug
	if seed == "" {
		seed = title
	}
	docSlug, err := docid.Derive(seed, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to derive slug: %v\n", err)
		os.Exit(1)
	}

	doc := &models.Document{
		Slug:         docSlug,
		Title:        title,
		Date:         time.Now(),
		Draft:        true,
		ShowPageMeta: true,
	}
	data, err := frontmatter.Serialize(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build document: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create directory: %v\n", err)
		os.Exit(1)
	}
	path := filepath.Join(targetDir, docSlug+".md")
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(os.Stderr, "Refusing to overwrite existing %s\n", path)
		os.Exit(1)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write document: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created %s\n", path)
}
