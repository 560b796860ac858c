// Package app implements the application layer for sheaf.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/sheaf/internal/adapters/fs"
	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/core/ports"
	"go.trai.ch/sheaf/internal/engine/assets"
	"go.trai.ch/sheaf/internal/engine/registry"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const (
	stateIdle int32 = iota
	stateBuilding
)

// App represents the main application logic.
type App struct {
	store      ports.CacheStore
	bundler    ports.Bundler
	builder    assets.Builder
	telemetry  ports.Telemetry
	hasher     ports.Hasher
	logger     ports.Logger
	newWatcher ports.WatcherFactory

	state atomic.Int32

	mu        sync.Mutex
	listeners []ports.Listener

	// Process cache, reused across builds of the same cache file.
	snapshot  *domain.Snapshot
	registry  *registry.Registry
	cachePath string
}

// New creates a new App instance.
func New(
	store ports.CacheStore,
	bundler ports.Bundler,
	builder assets.Builder,
	telemetry ports.Telemetry,
	hasher ports.Hasher,
	newWatcher ports.WatcherFactory,
	log ports.Logger,
) *App {
	return &App{
		store:      store,
		bundler:    bundler,
		builder:    builder,
		telemetry:  telemetry,
		hasher:     hasher,
		newWatcher: newWatcher,
		logger:     log,
	}
}

// Subscribe registers a listener for build notifications.
func (a *App) Subscribe(l ports.Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, l)
}

func (a *App) notify(n domain.Notification) {
	a.mu.Lock()
	listeners := a.listeners
	a.mu.Unlock()

	for _, l := range listeners {
		l.Notify(n)
	}
}

// BundleOptions configures a single build.
type BundleOptions struct {
	// Entries are the entry files of the bundle.
	Entries []string
	// CacheFile is where the dependency cache is loaded from and saved to.
	// Empty keeps the cache in memory only.
	CacheFile string
	// Output receives the main output.
	Output io.Writer
	// Assets receives the asset output. Nil discards it.
	Assets io.Writer
	// NoCache drops the process cache and ignores the cache file.
	NoCache bool
}

// BuildResult summarizes a successful build.
type BuildResult struct {
	Bytes       int64
	AssetBytes  int64
	Digest      string
	Elapsed     time.Duration
	Invalidated []string
	AssetErrors []*domain.AssetError
}

// Bundle runs one build: it invalidates the cache, walks the dependency graph
// while building package assets, and persists the cache on success.
// A second call while a build is running fails with domain.ErrBuildInProgress.
func (a *App) Bundle(ctx context.Context, opts BundleOptions) (*BuildResult, error) {
	if !a.state.CompareAndSwap(stateIdle, stateBuilding) {
		return nil, domain.ErrBuildInProgress
	}
	defer a.state.Store(stateIdle)

	if len(opts.Entries) == 0 {
		return nil, domain.ErrNoEntries
	}

	a.prepareCache(opts)

	invalidated, err := a.invalidate(ctx)
	if err != nil {
		return nil, zerr.Wrap(err, "cache invalidation failed")
	}
	a.notify(domain.UpdateNotification{Invalidated: invalidated})

	session := assets.NewSession(assets.Options{
		Registry:  a.registry,
		Snapshot:  a.snapshot,
		Builder:   a.builder,
		Telemetry: a.telemetry,
		Listener:  ports.ListenerFunc(a.notify),
		Mtime:     a.store.Mtime,
	})

	req := ports.BundleRequest{
		Entries: opts.Entries,
		Cache:   maps.Clone(a.snapshot.Modules),
	}

	output := opts.Output
	if output == nil {
		output = io.Discard
	}
	digest := fs.NewDigestWriter(session.MainOutput(output))

	assetOutput := opts.Assets
	if assetOutput == nil {
		assetOutput = io.Discard
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return session.Run(gctx)
	})

	g.Go(func() error {
		err := a.bundler.Bundle(gctx, req, session, digest)
		session.EndMainOutput(err)
		return err
	})

	g.Go(func() error {
		if _, err := io.Copy(assetOutput, session.Stream()); err != nil {
			session.Stream().CloseRead(err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, errors.Join(domain.ErrBundleFailed, err)
	}

	elapsed := session.Elapsed()
	bytes := session.Bytes()
	a.notify(domain.LogNotification{
		Message: fmt.Sprintf("%d bytes written (%.2f seconds)", bytes, elapsed.Seconds()),
	})
	a.notify(domain.TimeNotification{Elapsed: elapsed})
	a.notify(domain.BytesNotification{Bytes: bytes})

	a.registry.Export(a.snapshot)
	a.save()

	return &BuildResult{
		Bytes:       bytes,
		AssetBytes:  session.Stream().Written(),
		Digest:      digest.Sum(),
		Elapsed:     elapsed,
		Invalidated: invalidated,
		AssetErrors: session.AssetErrors(),
	}, nil
}

// prepareCache loads the snapshot the first time a cache file is used in
// this process. Later builds reuse the in-memory snapshot.
func (a *App) prepareCache(opts BundleOptions) {
	if opts.NoCache {
		a.reset(domain.NewSnapshot(), opts.CacheFile)
		return
	}
	if a.snapshot != nil && a.cachePath == opts.CacheFile {
		return
	}
	if opts.CacheFile == "" {
		a.reset(domain.NewSnapshot(), "")
		return
	}

	snapshot, err := a.store.Load(opts.CacheFile)
	if err != nil {
		a.notify(domain.CacheReadErrorNotification{Path: opts.CacheFile, Err: err})
	}
	if snapshot == nil {
		snapshot = domain.NewSnapshot()
	}
	a.reset(snapshot, opts.CacheFile)
}

func (a *App) reset(snapshot *domain.Snapshot, path string) {
	a.snapshot = snapshot
	a.registry = registry.FromSnapshot(snapshot)
	a.cachePath = path
}

func (a *App) invalidate(ctx context.Context) ([]string, error) {
	ctx, vertex := a.telemetry.Record(ctx, "invalidate cache", ports.WithInternal())

	invalidated, err := a.store.Invalidate(ctx, a.snapshot)
	switch {
	case err != nil:
		vertex.Complete(err)
	case len(invalidated) == 0:
		vertex.Cached()
	default:
		vertex.Complete(nil)
	}
	return invalidated, err
}

func (a *App) save() {
	if a.cachePath == "" {
		return
	}
	if err := a.store.Save(a.cachePath, a.snapshot); err != nil {
		a.notify(domain.CacheWriteErrorNotification{Path: a.cachePath, Err: err})
		return
	}
	a.notify(domain.CacheWrittenNotification{Path: a.cachePath})
}

// Clean removes the cache file and drops the process cache.
func (a *App) Clean(_ context.Context, cacheFile string) error {
	if !a.state.CompareAndSwap(stateIdle, stateBuilding) {
		return domain.ErrBuildInProgress
	}
	defer a.state.Store(stateIdle)

	a.logger.Info("removing dependency cache", "path", cacheFile)
	if err := a.store.Remove(cacheFile); err != nil {
		return err
	}
	a.snapshot, a.registry, a.cachePath = nil, nil, ""
	return nil
}
