// Package fs provides file system adapters for globbing, walking and hashing files.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// alwaysSkipped are directories never walked.
var alwaysSkipped = map[string]bool{
	".git":   true,
	".jj":    true,
	".sheaf": true,
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all files below root. Ignore patterns use doublestar
// syntax and are matched against the slash-separated path relative to root.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return w.walk(root, ignores, false)
}

// WalkDirs yields root and every directory below it that is not ignored.
func (w *Walker) WalkDirs(root string, ignores []string) iter.Seq[string] {
	return w.walk(root, ignores, true)
}

func (w *Walker) walk(root string, ignores []string, dirs bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable entries are skipped rather than aborting the walk.
				return nil //nolint:nilerr // Intentional
			}

			if path != root && w.Ignored(root, path, ignores) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() != dirs {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// Ignored reports whether path, found below root, lies in an always skipped
// directory or matches one of the ignore patterns.
func (w *Walker) Ignored(root, path string, ignores []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, segment := range strings.Split(rel, "/") {
		if alwaysSkipped[segment] {
			return true
		}
	}

	for _, pattern := range ignores {
		if matched, matchErr := doublestar.Match(pattern, rel); matchErr == nil && matched {
			return true
		}
	}
	return false
}
