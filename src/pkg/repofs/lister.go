// Package repofs enumerates repository files for required-file checks.
package repofs

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ignoredDirs are top-level directories never considered part of the
// repository contents.
var ignoredDirs = map[string]struct{}{
	".git":   {},
	"target": {},
}

// Lister walks a repository root and yields file paths relative to it,
// using forward slashes, with VCS-internal directories excluded.
type Lister struct {
	Root string
}

// NewLister creates a Lister rooted at root.
func NewLister(root string) *Lister {
	return &Lister{Root: root}
}

// ListPaths returns every regular file under the root. Paths are relative
// and slash-separated regardless of platform.
func (l *Lister) ListPaths() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(l.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relative, relErr := filepath.Rel(l.Root, path)
		if relErr != nil {
			return relErr
		}
		relative = filepath.ToSlash(relative)
		if entry.IsDir() {
			if relative == "." {
				return nil
			}
			top := relative
			if index := strings.Index(relative, "/"); index >= 0 {
				top = relative[:index]
			}
			if _, ignored := ignoredDirs[top]; ignored {
				return fs.SkipDir
			}
			return nil
		}
		if entry.Type().IsRegular() {
			paths = append(paths, relative)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list repository files under %s: %w", l.Root, err)
	}
	return paths, nil
}
