package jsbundler

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/sheaf/internal/adapters/fs"
)

var extensions = []string{"", ".js", ".json"}

func isPath(spec string) bool {
	return strings.HasPrefix(spec, "./") ||
		strings.HasPrefix(spec, "../") ||
		spec == "." || spec == ".." ||
		filepath.IsAbs(spec)
}

// resolve maps a require specifier found in from to an absolute file.
func resolve(from, spec string) (string, bool) {
	if isPath(spec) {
		base := spec
		if !filepath.IsAbs(base) {
			base = filepath.Join(filepath.Dir(from), spec)
		}
		return resolvePath(base)
	}

	for dir := filepath.Dir(from); ; dir = filepath.Dir(dir) {
		if filepath.Base(dir) != "node_modules" {
			if file, ok := resolvePath(filepath.Join(dir, "node_modules", spec)); ok {
				return file, true
			}
		}
		if filepath.Dir(dir) == dir {
			return "", false
		}
	}
}

func resolvePath(base string) (string, bool) {
	if file, ok := resolveFile(base); ok {
		return file, true
	}
	return resolveDir(base)
}

func resolveFile(base string) (string, bool) {
	for _, ext := range extensions {
		if fs.Exists(base + ext) {
			return base + ext, true
		}
	}
	return "", false
}

func resolveDir(dir string) (string, bool) {
	if m, err := readManifest(dir); err == nil && m.Main != "" {
		main := filepath.Join(dir, m.Main)
		if file, ok := resolveFile(main); ok {
			return file, true
		}
		if file, ok := resolveFile(filepath.Join(main, "index")); ok {
			return file, true
		}
	} else if err != nil && !os.IsNotExist(err) {
		return "", false
	}
	return resolveFile(filepath.Join(dir, "index"))
}
