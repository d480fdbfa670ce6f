package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"schema.ddl", "schema.ddlb"},
		{"dir/schema", "dir/schema.ddlb"},
		{"a.b/c.ddl", "a.b/c.ddlb"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := DefaultOutputPath(tt.in); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestIsBlob(t *testing.T) {
	if !IsBlob("x.ddlb") || !IsBlob("X.DDLB") || IsBlob("x.ddl") {
		t.Error("unexpected blob classification")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ddlb")
	for _, data := range []string{"first", "second"} {
		if err := WriteFileAtomic(path, []byte(data)); err != nil {
			t.Fatalf("WriteFileAtomic failed: %v", err)
		}
		got, err := os.ReadFile(path)
		if err != nil || string(got) != data {
			t.Fatalf("expected %q, got %q (%v)", data, got, err)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestGetPathInfo(t *testing.T) {
	full, parent, err := GetPathInfo("a/../b/c.ddl")
	if err != nil {
		t.Fatalf("GetPathInfo failed: %v", err)
	}
	if !filepath.IsAbs(full) || filepath.Base(full) != "c.ddl" || filepath.Base(parent) != "b" {
		t.Errorf("unexpected path info: %s %s", full, parent)
	}
}
