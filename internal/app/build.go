package app

import (
	"context"
	"errors"
	"io"
	"os"
)

// BuildOptions configures a build whose outputs are files.
type BuildOptions struct {
	Entries   []string
	CacheFile string
	// BundlePath receives the main output. Empty writes it to Stdout.
	BundlePath string
	// AssetPath receives the asset output. Empty discards it.
	AssetPath string
	NoCache   bool
	// Stdout is used when BundlePath is empty. Defaults to os.Stdout.
	Stdout io.Writer
}

// Build runs Bundle with file outputs. Output files are only replaced when
// the build succeeds.
func (a *App) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	var pending []*pendingFile
	discardAll := func() {
		for _, p := range pending {
			p.discard()
		}
	}

	bundleOut := opts.Stdout
	if bundleOut == nil {
		bundleOut = os.Stdout
	}
	if opts.BundlePath != "" {
		p, err := createPending(opts.BundlePath)
		if err != nil {
			return nil, err
		}
		pending = append(pending, p)
		bundleOut = p
	}

	var assetOut io.Writer
	if opts.AssetPath != "" {
		p, err := createPending(opts.AssetPath)
		if err != nil {
			discardAll()
			return nil, err
		}
		pending = append(pending, p)
		assetOut = p
	}

	result, err := a.Bundle(ctx, BundleOptions{
		Entries:   opts.Entries,
		CacheFile: opts.CacheFile,
		Output:    bundleOut,
		Assets:    assetOut,
		NoCache:   opts.NoCache,
	})
	if err != nil {
		discardAll()
		return nil, err
	}

	var errs error
	for _, p := range pending {
		errs = errors.Join(errs, p.commit())
	}
	if errs != nil {
		return nil, errs
	}
	return result, nil
}
