package ports

import (
	"context"

	"go.trai.ch/sheaf/internal/core/domain"
)

// CacheStore persists the dependency cache between processes.
//
//go:generate go run go.uber.org/mock/mockgen -source=cache_store.go -destination=mocks/mock_cache_store.go -package=mocks
type CacheStore interface {
	// Load reads the snapshot at path. It always returns a usable snapshot;
	// a non-nil error reports why the returned snapshot is empty.
	Load(path string) (*domain.Snapshot, error)

	// Invalidate drops every module whose source file changed or disappeared
	// since it was recorded and returns the dropped ids in sorted order.
	Invalidate(ctx context.Context, snapshot *domain.Snapshot) ([]string, error)

	// Save atomically replaces the file at path with the serialized snapshot.
	Save(path string, snapshot *domain.Snapshot) error

	// Mtime returns the current modification time of path in epoch
	// milliseconds, or false if it cannot be determined.
	Mtime(path string) (int64, bool)

	// Remove deletes the file at path. A missing file is not an error.
	Remove(path string) error
}
