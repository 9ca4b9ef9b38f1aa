package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/kiroku/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testDoc(slug, path string, date time.Time) *models.Document {
	return &models.Document{
		Slug:         slug,
		Path:         path,
		Title:        "Title " + slug,
		Date:         date,
		ShowPageMeta: true,
		Body:         "body of " + slug,
	}
}

func TestSQLiteStorage_UpsertGetDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := time.Date(2017, 10, 31, 15, 56, 44, 0, time.FixedZone("", -4*3600))

	doc := testDoc("clean-db", "/content/post/clean-db.md", date)
	doc.Categories = []string{"rails", "testing"}
	doc.Tags = []string{"rspec"}
	doc.Extra = map[string]any{"author": "jane"}
	if err := store.UpsertDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetDocument(ctx, "clean-db")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != doc.Title || got.Body != doc.Body {
		t.Errorf("got %+v", got)
	}
	if !got.Date.Equal(date) {
		t.Errorf("Date = %v, want %v", got.Date, date)
	}
	if len(got.Categories) != 2 || got.Categories[0] != "rails" {
		t.Errorf("Categories = %v", got.Categories)
	}
	if got.Extra["author"] != "jane" {
		t.Errorf("Extra = %v", got.Extra)
	}

	// Upsert with the same slug replaces.
	doc.Title = "Updated"
	if err := store.UpsertDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetDocument(ctx, "clean-db")
	if got.Title != "Updated" {
		t.Errorf("expected Updated, got %s", got.Title)
	}

	byPath, err := store.GetDocumentByPath(ctx, "/content/post/clean-db.md")
	if err != nil {
		t.Fatal(err)
	}
	if byPath.Slug != "clean-db" {
		t.Errorf("GetDocumentByPath slug = %q", byPath.Slug)
	}

	if err := store.DeleteDocument(ctx, "clean-db"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetDocument(ctx, "clean-db"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error after delete = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_DeleteByPath(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := testDoc("gone", "/content/post/gone.md", time.Now())
	if err := store.UpsertDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	slug, err := store.DeleteDocumentByPath(ctx, "/content/post/gone.md")
	if err != nil {
		t.Fatal(err)
	}
	if slug != "gone" {
		t.Errorf("slug = %q, want gone", slug)
	}
	if _, err := store.DeleteDocumentByPath(ctx, "/content/post/gone.md"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStorage_ListOrderAndDrafts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	day := func(value string) time.Time {
		d, err := time.Parse("2006-01-02", value)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}
	docs := []*models.Document{
		testDoc("spooky", "/p/spooky.md", day("2017-10-31")),
		testDoc("newer", "/p/newer.md", day("2017-11-02")),
		testDoc("hidden", "/p/hidden.md", day("2017-10-31")),
	}
	docs[2].Draft = true
	for _, d := range docs {
		if err := store.UpsertDocument(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.ListDocuments(ctx, models.ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Slug != "newer" || list[1].Slug != "spooky" {
		t.Errorf("default list = %v", slugsOf(list))
	}

	list, err = store.ListDocuments(ctx, models.ListOptions{IncludeDrafts: true})
	if err != nil {
		t.Fatal(err)
	}
	// Tie on 2017-10-31 breaks by slug ascending.
	want := []string{"newer", "hidden", "spooky"}
	got := slugsOf(list)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("drafts list = %v, want %v", got, want)
		}
	}

	count, err := store.CountDocuments(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("CountDocuments = %d, want 2", count)
	}
}

func TestSQLiteStorage_ListFiltersAndWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2017, 10, 1, 0, 0, 0, 0, time.UTC)

	for i, slug := range []string{"a", "b", "c"} {
		doc := testDoc(slug, "/p/"+slug+".md", base.AddDate(0, 0, i))
		if slug != "c" {
			doc.Tags = []string{"rspec"}
		}
		doc.Categories = []string{"rails"}
		if err := store.UpsertDocument(ctx, doc); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.ListDocuments(ctx, models.ListOptions{Tag: "rspec"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Slug != "b" {
		t.Errorf("tag filter = %v", slugsOf(list))
	}

	list, err = store.ListDocuments(ctx, models.ListOptions{Category: "rails", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Slug != "b" || list[1].Slug != "a" {
		t.Errorf("windowed list = %v", slugsOf(list))
	}
}

func slugsOf(docs []*models.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Slug
	}
	return out
}

func TestSQLiteStorage_Taxonomy(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2017, 10, 1, 0, 0, 0, 0, time.UTC)

	a := testDoc("a", "/p/a.md", base)
	a.Categories = []string{"rails"}
	a.Tags = []string{"rspec", "factory-girl"}
	b := testDoc("b", "/p/b.md", base.AddDate(0, 0, 1))
	b.Categories = []string{"rails", "testing"}
	b.Tags = []string{"rspec"}
	draft := testDoc("d", "/p/d.md", base)
	draft.Draft = true
	draft.Tags = []string{"unpublished"}
	for _, d := range []*models.Document{a, b, draft} {
		if err := store.UpsertDocument(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	cats, err := store.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) != 2 || cats[0].Term != "rails" || cats[0].Count != 2 {
		t.Errorf("Categories = %v", cats)
	}

	tags, err := store.Tags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0].Term != "rspec" || tags[0].Count != 2 {
		t.Errorf("Tags = %v", tags)
	}
	for _, tc := range tags {
		if tc.Term == "unpublished" {
			t.Error("draft tags should not appear in taxonomy")
		}
	}
}
