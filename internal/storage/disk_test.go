package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.db"), make([]byte, 100), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "index")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "seg"), make([]byte, 50), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := DiskUsageBytes(filepath.Join(dir, "a.db"), sub)
	if err != nil {
		t.Fatal(err)
	}
	if got != 150 {
		t.Errorf("DiskUsageBytes = %d, want 150", got)
	}
}

func TestDiskUsageBytes_missingPathsSkipped(t *testing.T) {
	got, err := DiskUsageBytes("", "/nonexistent/path/for/sure")
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("DiskUsageBytes = %d, want 0", got)
	}
}
