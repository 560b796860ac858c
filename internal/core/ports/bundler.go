package ports

import (
	"context"
	"io"

	"go.trai.ch/sheaf/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=bundler.go -destination=mocks/mock_bundler.go -package=mocks

// BundleRequest describes one walk of the dependency graph.
type BundleRequest struct {
	// Entries are the absolute paths of the entry files.
	Entries []string
	// Cache holds module records that are still valid and may be reused
	// without reading their source. It must not be modified.
	Cache map[string]domain.ModuleRecord
}

// EventSink receives discovery events during a bundler walk.
type EventSink interface {
	// Emit delivers one event. It returns an error once the receiver is gone.
	Emit(ctx context.Context, event domain.BundlerEvent) error
}

// Bundler walks the dependency graph from the entries and writes the main output.
type Bundler interface {
	// Bundle reports every module, file and package through sink and writes the
	// main output to w. A returned error is fatal for the build.
	Bundle(ctx context.Context, req BundleRequest, sink EventSink, w io.Writer) error
}
