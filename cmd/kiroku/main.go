// Package main is the kiroku CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/kiroku/internal/cli"
	"github.com/hyperjump/kiroku/internal/config"
	"github.com/hyperjump/kiroku/internal/corpus"
	"github.com/hyperjump/kiroku/internal/indexer"
	"github.com/hyperjump/kiroku/internal/models"
	"github.com/hyperjump/kiroku/internal/search"
	"github.com/hyperjump/kiroku/internal/server"
	"github.com/hyperjump/kiroku/internal/storage"
	"github.com/hyperjump/kiroku/internal/watcher"
	"github.com/hyperjump/kiroku/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kiroku/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "kiroku serve" from the project dir uses the project's
// config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "serve":
		runServe()
	case "list":
		runList()
	case "check":
		runCheck()
	case "search":
		runSearch()
	case "new":
		runNew()
	case "version", "--version", "-v":
		fmt.Printf("kiroku version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file events, sync activity, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ing := components.Indexer
	exts := cfg.Content.Extensions

	// Initial sync brings the store up to date with the content tree.
	for _, dir := range cfg.Content.Directories {
		synced, skipped, err := ing.SyncDirectory(context.Background(), dir, exts)
		if err != nil {
			logger.Fatal("Initial sync failed", zap.String("dir", dir), zap.Error(err))
		}
		logger.Info("content synced",
			zap.String("dir", dir),
			zap.Int("synced", synced),
			zap.Int("skipped", skipped))
	}

	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watch := watcher.New(
		cfg.Content.Directories,
		exts,
		cfg.Content.RecursiveOrDefault(),
		func(path string) {
			if err := ing.SyncFile(context.Background(), path, exts); err != nil {
				logger.Warn("watch sync failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := ing.RemoveFile(context.Background(), path); err != nil {
				logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watch.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	defer watch.Stop()

	srv := server.NewServer(components.Storage, components.Index, ing, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	drafts := fs.Bool("drafts", false, "include draft documents")
	category := fs.String("category", "", "filter by category")
	tag := fs.String("tag", "", "filter by tag")
	limit := fs.Int("limit", 0, "maximum documents to list (0 = all)")
	offset := fs.Int("offset", 0, "documents to skip from the top")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	c, _, err := loadCorpus(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load corpus: %v\n", err)
		os.Exit(1)
	}

	docs := c.Documents(models.ListOptions{
		IncludeDrafts: *drafts || cfg.Content.IncludeDrafts,
		Category:      *category,
		Tag:           *tag,
		Limit:         *limit,
		Offset:        *offset,
	})
	if err := cli.WriteDocuments(os.Stdout, docs, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runCheck() {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	report, err := checkCorpus(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Check failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteCheckReport(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if !report.OK() {
		os.Exit(1)
	}
}

// checkCorpus parses every document under the configured content directories
// and collects problems instead of stopping at the first one. Duplicate
// identities are reported alongside malformed documents.
func checkCorpus(cfg *config.Config) (*cli.CheckReport, error) {
	c := corpus.New(corpus.WithExtensions(cfg.Content.Extensions))
	report := &cli.CheckReport{}
	exts := cfg.Content.Extensions
	if len(exts) == 0 {
		exts = []string{".md", ".markdown"}
	}
	for _, root := range cfg.Content.Directories {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !hasExtension(path, exts) {
				return nil
			}
			if loadErr := c.LoadFile(path); loadErr != nil {
				report.Problems = append(report.Problems, cli.CheckProblem{
					Path:  path,
					Error: loadErr.Error(),
				})
				return nil
			}
			report.Loaded++
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}
	return report, nil
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open storage directly)")
	limit := fs.Int("limit", 10, "number of results")
	tag := fs.String("tag", "", "restrict results to a tag")
	category := fs.String("category", "", "restrict results to a category")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: kiroku search [flags] <query>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fs.Usage()
		os.Exit(1)
	}
	format, err := parseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *serverURL != "" {
		// Use the HTTP API when the server is running; bleve holds an
		// exclusive lock on its index directory.
		hits, err := searchViaHTTP(*serverURL, query, *limit, *tag, *category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, query, hits, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger, cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	results, err := components.Index.Search(ctx, query, *limit, &search.Options{Tag: *tag, Category: *category})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	hits := make([]cli.SearchHit, 0, len(results))
	for _, res := range results {
		doc, err := components.Storage.GetDocument(ctx, res.Slug)
		if err != nil {
			continue
		}
		hits = append(hits, cli.SearchHit{Document: doc, Score: res.Score})
	}
	if err := cli.WriteSearchResults(os.Stdout, query, hits, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL, query string, limit int, tag, category string) ([]cli.SearchHit, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", fmt.Sprintf("%d", limit))
	if tag != "" {
		params.Set("tag", tag)
	}
	if category != "" {
		params.Set("category", category)
	}
	resp, err := http.Get(serverURL + "/api/v1/search?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var out struct {
		Results []cli.SearchHit `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Results, nil
}

func parseOutputFormat(s string) (cli.OutputFormat, error) {
	switch s {
	case "text", "":
		return cli.OutputText, nil
	case "json":
		return cli.OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// loadCorpus builds the in-memory corpus from the configured content
// directories, honoring the configured error policy.
func loadCorpus(cfg *config.Config) (*corpus.Corpus, int, error) {
	opts := []corpus.Option{corpus.WithExtensions(cfg.Content.Extensions)}
	if cfg.Content.OnError != "" {
		opts = append(opts, corpus.WithErrorPolicy(corpus.ErrorPolicy(cfg.Content.OnError)))
	}
	c := corpus.New(opts...)
	_, skipped, err := c.LoadDirectories(cfg.Content.Directories)
	if err != nil {
		return nil, 0, err
	}
	return c, skipped, nil
}

// Components holds initialized services.
type Components struct {
	Storage storage.Storage
	Index   search.Index
	Indexer *indexer.Indexer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Index != nil {
		_ = c.Index.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	index, err := search.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize search index: %w", err)
	}
	ingOpts := []indexer.Option{}
	if debug && logger != nil {
		ingOpts = append(ingOpts, indexer.WithLogger(logger))
	}
	ing := indexer.New(store, index, ingOpts...)
	return &Components{
		Storage: store,
		Index:   index,
		Indexer: ing,
	}, nil
}

func printUsage() {
	fmt.Println(`kiroku - front-mattered document corpus server

Usage:
  kiroku serve [flags]            Start the HTTP server
  kiroku list [flags]             List documents (date descending)
  kiroku check [flags]            Validate the corpus and report problems
  kiroku search [flags] <query>   Full-text search over published documents
  kiroku new [flags] <title>      Scaffold a new draft document
  kiroku version                  Show version
  kiroku help                     Show this help

Serve Flags:
  --config string    Config file path (default: /usr/local/etc/kiroku/config.yaml)
  --debug            Enable debug logging (file events, sync activity, etc.)

List Flags:
  --config string    Config file path
  --drafts           Include draft documents
  --category string  Filter by category
  --tag string       Filter by tag
  --limit int        Maximum documents to list (0 = all)
  --offset int       Documents to skip from the top
  --output string    Output format: text or json (default: text)

Check Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Search Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to open storage directly.
  --limit int        Number of results (default: 10)
  --tag string       Restrict results to a tag
  --category string  Restrict results to a category
  --output string    Output format: text or json (default: text)

New Flags:
  --config string    Config file path
  --dir string       Target directory (default: first configured content directory)
  --slug string      Explicit slug (default: derived from title)

Examples:
  kiroku serve
  kiroku list --tag rspec --limit 5
  kiroku check
  kiroku search database cleaning
  kiroku new "Cleaning the Database"`)
}
