package fs

import (
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/sheaf/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Globber = (*Globber)(nil)

// Globber implements ports.Globber with doublestar patterns rooted at a directory.
type Globber struct{}

// NewGlobber creates a new Globber.
func NewGlobber() *Globber {
	return &Globber{}
}

// Glob expands pattern relative to dir and returns matching regular files as
// sorted absolute paths.
func (g *Globber) Glob(dir, pattern string) ([]string, error) {
	normalized := path.Clean(filepath.ToSlash(pattern))
	normalized = strings.TrimPrefix(normalized, "/")
	if !doublestar.ValidatePattern(normalized) {
		return nil, zerr.With(zerr.Wrap(doublestar.ErrBadPattern, "invalid style pattern"), "pattern", pattern)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve package directory"), "path", dir)
	}

	matches, err := doublestar.Glob(os.DirFS(absDir), normalized, doublestar.WithFilesOnly())
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to expand style pattern"), "pattern", pattern)
	}

	result := make([]string, 0, len(matches))
	for _, match := range matches {
		full := filepath.Join(absDir, filepath.FromSlash(match))
		info, statErr := os.Stat(full)
		if statErr != nil || !info.Mode().IsRegular() {
			continue
		}
		result = append(result, full)
	}
	slices.Sort(result)

	return slices.Compact(result), nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
