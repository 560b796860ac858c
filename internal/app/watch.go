package app

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/sheaf/internal/adapters/watcher"
	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/zerr"
)

// WatchOptions configures watch mode.
type WatchOptions struct {
	Build BuildOptions
	// Root is the directory watched recursively.
	Root string
	// Ignore are doublestar patterns relative to Root.
	Ignore []string
	// Debounce is the quiet period before a batch of changes triggers a build.
	Debounce time.Duration
	// OnBuild is called after every build attempt.
	OnBuild func(result *BuildResult, err error)
}

// Watch builds once, then rebuilds whenever watched files change until ctx is
// cancelled. Batches whose files have the same content as at the last build
// are skipped. Builds never overlap.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = domain.DefaultWatchDebounce
	}
	report := opts.OnBuild
	if report == nil {
		report = func(*BuildResult, error) {}
	}

	w, err := a.newWatcher(opts.Ignore)
	if err != nil {
		return zerr.Wrap(err, "failed to create file watcher")
	}
	defer func() { _ = w.Stop() }()

	if err := w.Start(ctx, opts.Root); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to start file watcher"), "root", opts.Root)
	}

	report(a.Build(ctx, opts.Build))

	// done is closed when Watch returns so a late debounce callback or the
	// event forwarder never blocks on a loop that is gone.
	done := make(chan struct{})
	defer close(done)

	outputs := newOutputSet(opts.Build)
	batches := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(opts.Debounce, func(paths []string) {
		select {
		case batches <- paths:
		case <-ctx.Done():
		case <-done:
		}
	})
	defer debouncer.Stop()

	events := make(chan string)
	go func() {
		defer close(events)
		for ev := range w.Events() {
			if outputs.contains(ev.Path) {
				continue
			}
			select {
			case events <- ev.Path:
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	hashes := make(map[string]uint64)
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-events:
			if !ok {
				return nil
			}
			debouncer.Add(path)
		case paths := <-batches:
			if !a.contentChanged(hashes, paths) {
				a.logger.Debug("no content change, skipping rebuild", "files", len(paths))
				continue
			}
			a.logger.Info("change detected, rebuilding", "files", len(paths))
			report(a.Build(ctx, opts.Build))
		}
	}
}

// contentChanged updates hashes with the current content of paths and reports
// whether any of them differs from what was last seen.
func (a *App) contentChanged(hashes map[string]uint64, paths []string) bool {
	changed := false
	for _, path := range paths {
		sum, err := a.hasher.ComputeFileHash(path)
		if err != nil {
			delete(hashes, path)
			changed = true
			continue
		}
		if prev, ok := hashes[path]; !ok || prev != sum {
			hashes[path] = sum
			changed = true
		}
	}
	return changed
}

// outputSet holds the files written by a build, which must not trigger rebuilds.
type outputSet map[string]bool

func newOutputSet(opts BuildOptions) outputSet {
	set := make(outputSet, 3)
	for _, path := range []string{opts.BundlePath, opts.AssetPath, opts.CacheFile} {
		if path == "" {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			set[abs] = true
		}
	}
	return set
}

// contains reports whether path is an output or one of its temporary files.
func (s outputSet) contains(path string) bool {
	path = filepath.Clean(path)
	if s[path] {
		return true
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, ".") || !strings.HasSuffix(base, ".tmp") {
		return false
	}
	for out := range s {
		if filepath.Dir(out) == filepath.Dir(path) && strings.HasPrefix(base, "."+filepath.Base(out)+".") {
			return true
		}
	}
	return false
}
