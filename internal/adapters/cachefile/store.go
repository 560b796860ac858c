// Package cachefile persists the dependency cache as a single JSON document.
package cachefile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.CacheStore = (*Store)(nil)

// Store implements ports.CacheStore on the local file system.
type Store struct {
	statLimit int
}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{statLimit: runtime.NumCPU() * 4}
}

// Load reads the snapshot at path. The returned snapshot is always usable.
func (s *Store) Load(path string) (*domain.Snapshot, error) {
	path = filepath.Clean(path)
	snapshot := domain.NewSnapshot()

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(path)
	if err != nil {
		return snapshot, zerr.With(zerr.Wrap(err, "failed to read cache file"), "path", path)
	}

	if len(data) == 0 {
		return snapshot, nil
	}

	var decoded domain.Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		return snapshot, zerr.With(zerr.Wrap(err, "failed to unmarshal cache file"), "path", path)
	}
	decoded.Normalize()

	return &decoded, nil
}

type fileStat struct {
	id     string
	file   string
	mtime  int64
	exists bool
}

// Invalidate stats the source of every cached module and drops the ones that
// changed, disappeared, or were never stat'ed.
func (s *Store) Invalidate(ctx context.Context, snapshot *domain.Snapshot) ([]string, error) {
	ids := make([]string, 0, len(snapshot.Modules))
	for id := range snapshot.Modules {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	stats := make([]fileStat, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.statLimit)

	for i, id := range ids {
		file := snapshot.Modules[id].File
		if file == "" {
			file = id
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			mtime, ok := s.Mtime(file)
			stats[i] = fileStat{id: id, file: file, mtime: mtime, exists: ok}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, zerr.Wrap(err, "cache invalidation interrupted")
	}

	// Decide against the stored mtimes before refreshing them, so modules
	// sharing a source file are judged consistently.
	var invalidated []string
	for _, p := range stats {
		stored, known := snapshot.Mtimes[p.file]
		if !p.exists || !known || stored != p.mtime {
			invalidated = append(invalidated, p.id)
		}
	}

	for _, p := range stats {
		if p.exists {
			snapshot.Mtimes[p.file] = p.mtime
		} else {
			delete(snapshot.Mtimes, p.file)
		}
	}
	for _, id := range invalidated {
		delete(snapshot.Modules, id)
	}

	return invalidated, nil
}

// Mtime returns the modification time of path in epoch milliseconds.
func (s *Store) Mtime(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return info.ModTime().UnixMilli(), true
}

// Save writes the snapshot to a temporary file next to path and renames it into place.
func (s *Store) Save(path string, snapshot *domain.Snapshot) error {
	path = filepath.Clean(path)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal cache")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory for cache file"), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create temporary cache file"), "path", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Best effort cleanup, fails harmlessly after rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, "failed to write cache file"), "path", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close cache file"), "path", tmpName)
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to set cache file permissions"), "path", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to replace cache file"), "path", path)
	}

	return nil
}

// Remove deletes the cache file at path.
func (s *Store) Remove(path string) error {
	if err := os.Remove(filepath.Clean(path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to remove cache file"), "path", path)
	}
	return nil
}
