// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kiroku/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	// date is kept twice: date_unix for correct ordering across timezone
	// offsets, date_rfc3339 to preserve the authored offset on read-back.
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		slug TEXT PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		date_unix INTEGER NOT NULL,
		date_rfc3339 TEXT NOT NULL,
		draft INTEGER NOT NULL DEFAULT 0,
		categories TEXT,
		tags TEXT,
		showpagemeta INTEGER NOT NULL DEFAULT 1,
		extra TEXT,
		body TEXT NOT NULL,
		source_mtime INTEGER,
		source_size INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_date ON documents(date_unix);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertDocument inserts or replaces a document by slug.
func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *models.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	// nil slices become "[]" so json_each in the taxonomy queries sees an
	// empty array, not a JSON null scalar.
	categories, err := json.Marshal(emptyIfNil(doc.Categories))
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	tags, err := json.Marshal(emptyIfNil(doc.Tags))
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	extra, err := json.Marshal(doc.Extra)
	if err != nil {
		return fmt.Errorf("failed to marshal extra metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents
		 (slug, path, title, date_unix, date_rfc3339, draft, categories, tags, showpagemeta, extra, body, source_mtime, source_size, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
		 path = excluded.path,
		 title = excluded.title,
		 date_unix = excluded.date_unix,
		 date_rfc3339 = excluded.date_rfc3339,
		 draft = excluded.draft,
		 categories = excluded.categories,
		 tags = excluded.tags,
		 showpagemeta = excluded.showpagemeta,
		 extra = excluded.extra,
		 body = excluded.body,
		 source_mtime = excluded.source_mtime,
		 source_size = excluded.source_size,
		 updated_at = excluded.updated_at`,
		doc.Slug, doc.Path, doc.Title, doc.Date.Unix(), doc.Date.Format(time.RFC3339),
		doc.Draft, string(categories), string(tags), doc.ShowPageMeta, string(extra),
		doc.Body, doc.SourceModTime.UnixNano(), doc.SourceSize, time.Now(),
	)
	return err
}

const documentColumns = `slug, path, title, date_rfc3339, draft, categories, tags, showpagemeta, extra, body, source_mtime, source_size`

// GetDocument returns a document by slug.
func (s *SQLiteStorage) GetDocument(ctx context.Context, slug string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE slug = ?`, slug)
	return scanDocument(row)
}

// GetDocumentByPath returns the document loaded from path.
func (s *SQLiteStorage) GetDocumentByPath(ctx context.Context, path string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE path = ?`, path)
	return scanDocument(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var dateRFC3339, categories, tags, extra string
	var mtime int64
	err := row.Scan(&doc.Slug, &doc.Path, &doc.Title, &dateRFC3339, &doc.Draft,
		&categories, &tags, &doc.ShowPageMeta, &extra, &doc.Body, &mtime, &doc.SourceSize)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	doc.Date, err = time.Parse(time.RFC3339, dateRFC3339)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored date %q: %w", dateRFC3339, err)
	}
	doc.SourceModTime = time.Unix(0, mtime)
	if categories != "" {
		if err := json.Unmarshal([]byte(categories), &doc.Categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
		}
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &doc.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	if extra != "" && extra != "null" {
		if err := json.Unmarshal([]byte(extra), &doc.Extra); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extra metadata: %w", err)
		}
	}
	return &doc, nil
}

// DeleteDocument removes a document by slug.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE slug = ?`, slug)
	return err
}

// DeleteDocumentByPath removes the document loaded from path and returns its slug.
func (s *SQLiteStorage) DeleteDocumentByPath(ctx context.Context, path string) (string, error) {
	var slug string
	err := s.db.QueryRowContext(ctx, `SELECT slug FROM documents WHERE path = ?`, path).Scan(&slug)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE slug = ?`, slug); err != nil {
		return "", err
	}
	return slug, nil
}

// ListDocuments returns documents ordered by date descending then slug ascending.
func (s *SQLiteStorage) ListDocuments(ctx context.Context, opts models.ListOptions) ([]*models.Document, error) {
	opts.Normalize()
	query := `SELECT ` + documentColumns + ` FROM documents WHERE (? OR draft = 0)`
	args := []any{opts.IncludeDrafts}
	if opts.Category != "" {
		query += ` AND EXISTS (SELECT 1 FROM json_each(documents.categories) WHERE json_each.value = ?)`
		args = append(args, opts.Category)
	}
	if opts.Tag != "" {
		query += ` AND EXISTS (SELECT 1 FROM json_each(documents.tags) WHERE json_each.value = ?)`
		args = append(args, opts.Tag)
	}
	query += ` ORDER BY date_unix DESC, slug ASC`
	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	} else if opts.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the number of documents, optionally including drafts.
func (s *SQLiteStorage) CountDocuments(ctx context.Context, includeDrafts bool) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE (? OR draft = 0)`, includeDrafts).Scan(&count)
	return count, err
}

// Categories returns category terms with document counts, drafts excluded.
func (s *SQLiteStorage) Categories(ctx context.Context) ([]models.TermCount, error) {
	return s.termCounts(ctx, "categories")
}

// Tags returns tag terms with document counts, drafts excluded.
func (s *SQLiteStorage) Tags(ctx context.Context) ([]models.TermCount, error) {
	return s.termCounts(ctx, "tags")
}

func (s *SQLiteStorage) termCounts(ctx context.Context, column string) ([]models.TermCount, error) {
	// column is one of two trusted literals; it never comes from user input.
	rows, err := s.db.QueryContext(ctx,
		`SELECT json_each.value, COUNT(*) FROM documents, json_each(documents.`+column+`)
		 WHERE draft = 0 GROUP BY json_each.value
		 ORDER BY COUNT(*) DESC, json_each.value ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TermCount
	for rows.Next() {
		var tc models.TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
