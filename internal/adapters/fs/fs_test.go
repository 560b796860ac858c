package fs_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sheaf/internal/adapters/fs"
)

func mkfile(t *testing.T, root string, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestWalker_WalkFiles(t *testing.T) {
	// tmp/
	//   .git/config
	//   ignored/file
	//   src/main.js
	//   src/gen/out.js
	//   README.md
	tmpDir := t.TempDir()
	mkfile(t, tmpDir, ".git/config", "git config")
	mkfile(t, tmpDir, "ignored/file", "ignored content")
	mkfile(t, tmpDir, "src/main.js", "main")
	mkfile(t, tmpDir, "src/gen/out.js", "generated")
	mkfile(t, tmpDir, "README.md", "# Readme")

	walker := fs.NewWalker()

	files := make(map[string]bool)
	for path := range walker.WalkFiles(tmpDir, []string{"ignored", "**/gen"}) {
		rel, err := filepath.Rel(tmpDir, path)
		require.NoError(t, err)
		files[filepath.ToSlash(rel)] = true
	}

	assert.False(t, files[".git/config"], "expected .git/config to be skipped")
	assert.False(t, files["ignored/file"], "expected ignored/file to be skipped")
	assert.False(t, files["src/gen/out.js"], "expected src/gen to be skipped")
	assert.True(t, files["src/main.js"])
	assert.True(t, files["README.md"])
}

func TestWalker_WalkDirs(t *testing.T) {
	tmpDir := t.TempDir()
	mkfile(t, tmpDir, "a/b/file.js", "x")
	mkfile(t, tmpDir, "node_modules/dep/index.js", "x")

	var dirs []string
	for dir := range fs.NewWalker().WalkDirs(tmpDir, []string{"node_modules"}) {
		rel, err := filepath.Rel(tmpDir, dir)
		require.NoError(t, err)
		dirs = append(dirs, filepath.ToSlash(rel))
	}

	assert.ElementsMatch(t, []string{".", "a", "a/b"}, dirs)
}

func TestGlobber_Glob(t *testing.T) {
	tmpDir := t.TempDir()
	a := mkfile(t, tmpDir, "styles/a.css", "a")
	b := mkfile(t, tmpDir, "styles/nested/b.css", "b")
	mkfile(t, tmpDir, "styles/c.txt", "c")
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "styles", "dir.css"), 0o750))

	globber := fs.NewGlobber()

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{"single level", "styles/*.css", []string{a}},
		{"recursive", "styles/**/*.css", []string{a, b}},
		{"dot prefix", "./styles/*.css", []string{a}},
		{"no matches", "*.scss", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := globber.Glob(tmpDir, tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGlobber_GlobBadPattern(t *testing.T) {
	_, err := fs.NewGlobber().Glob(t.TempDir(), "styles/[.css")
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()
	file := mkfile(t, tmpDir, "a.js", "x")

	assert.True(t, fs.Exists(file))
	assert.False(t, fs.Exists(tmpDir))
	assert.False(t, fs.Exists(filepath.Join(tmpDir, "missing.js")))
}

func TestHasher_ComputeFileHash(t *testing.T) {
	file := mkfile(t, t.TempDir(), "hash.txt", "hello world")
	hasher := fs.NewHasher()

	hash1, err := hasher.ComputeFileHash(file)
	require.NoError(t, err)
	assert.NotZero(t, hash1)

	hash2, err := hasher.ComputeFileHash(file)
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2, "expected deterministic hash")

	_, err = hasher.ComputeFileHash(file + ".missing")
	assert.Error(t, err)
}

func TestDigestWriter(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	d1 := fs.NewDigestWriter(&buf1)
	d2 := fs.NewDigestWriter(&buf2)

	_, err := d1.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = d1.Write([]byte("world"))
	require.NoError(t, err)
	_, err = d2.Write([]byte("hello world"))
	require.NoError(t, err)

	assert.Equal(t, "hello world", buf1.String())
	assert.Equal(t, d1.Sum(), d2.Sum())
	assert.Len(t, d1.Sum(), 16)
}

func TestWalker_Ignored(t *testing.T) {
	walker := fs.NewWalker()
	root := "/project"

	tests := []struct {
		path    string
		ignores []string
		want    bool
	}{
		{"/project/src/a.js", nil, false},
		{"/project/.git/index", nil, true},
		{"/project/.sheaf/cache.json", nil, true},
		{"/project/dist/bundle.js", []string{"dist/**"}, true},
		{"/project/src/dist.js", []string{"dist/**"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, walker.Ignored(root, tt.path, tt.ignores))
		})
	}
}
