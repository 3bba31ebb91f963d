package repofs

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestListPaths(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "README.md"))
	touch(t, filepath.Join(root, "src", "main.go"))
	touch(t, filepath.Join(root, "src", "deep", "util.go"))
	touch(t, filepath.Join(root, ".git", "config"))
	touch(t, filepath.Join(root, "target", "out.bin"))
	touch(t, filepath.Join(root, "src", ".git-keep"))

	paths, err := NewLister(root).ListPaths()
	if err != nil {
		t.Fatalf("ListPaths() error = %v", err)
	}
	sort.Strings(paths)

	want := []string{
		"README.md",
		"src/.git-keep",
		"src/deep/util.go",
		"src/main.go",
	}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("ListPaths() = %v, want %v", paths, want)
	}
}

func TestListPathsMissingRoot(t *testing.T) {
	if _, err := NewLister(filepath.Join(t.TempDir(), "nope")).ListPaths(); err == nil {
		t.Errorf("ListPaths() error = nil, want failure for missing root")
	}
}
