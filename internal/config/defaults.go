package config

import "fmt"

// ApplyDefaults sets default values for any zero values in cfg and rejects
// values that have no sane fallback.
func ApplyDefaults(cfg *Config) error {
	if cfg.Site.Name == "" {
		cfg.Site.Name = "kiroku"
	}
	if cfg.Site.URL == "" {
		cfg.Site.URL = "http://localhost:8080"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/db/documents.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "./data/indices/bleve"
	}
	if cfg.Content.Extensions == nil {
		cfg.Content.Extensions = []string{".md", ".markdown"}
	}
	switch cfg.Content.OnError {
	case "":
		cfg.Content.OnError = "skip"
	case "skip", "fail":
	default:
		return fmt.Errorf("content.on_error must be \"skip\" or \"fail\", got %q", cfg.Content.OnError)
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Content.Directories) > 0 && cfg.Content.Recursive == nil {
		t := true
		cfg.Content.Recursive = &t
	}
	return nil
}
