package docid

import "testing"

func TestDerive_fromPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain file", "/content/post/clean-database.md", "clean-database"},
		{"uppercase normalized", "/content/post/Clean-Database.md", "clean-database"},
		{"spaces become hyphens", "/content/post/clean database.md", "clean-database"},
		{"no extension", "/content/about", "about"},
		{"unclean path", "/content/./post/clean-database.md", "clean-database"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Derive("", tt.path)
			if err != nil {
				t.Fatalf("Derive() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Derive() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDerive_explicitWins(t *testing.T) {
	got, err := Derive("Custom Slug", "/content/post/something-else.md")
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if got != "custom-slug" {
		t.Errorf("Derive() = %q, want %q", got, "custom-slug")
	}
}

func TestDerive_deterministic(t *testing.T) {
	a, _ := Derive("", "/content/post/a.md")
	b, _ := Derive("", "/content/post/a.md")
	if a != b {
		t.Errorf("same path should give same slug: %q vs %q", a, b)
	}
}

func TestDerive_emptyPath(t *testing.T) {
	if _, err := Derive("", ""); err == nil {
		t.Error("expected error for empty path")
	}
}
