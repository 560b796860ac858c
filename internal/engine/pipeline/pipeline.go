// Package pipeline builds the stylesheet assets of a single package.
package pipeline

import (
	"context"
	"io"
	"os"
	"runtime"
	"sync"

	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Pipeline expands a package's style patterns and writes every matched file,
// transformed, to an output stream.
type Pipeline struct {
	globber   ports.Globber
	strategy  Strategy
	fileLimit int
}

// New creates a new Pipeline.
func New(globber ports.Globber, strategy Strategy) *Pipeline {
	return &Pipeline{
		globber:   globber,
		strategy:  strategy,
		fileLimit: runtime.NumCPU(),
	}
}

// ResolveTransforms resolves every transform declared by pkg, in order.
func (p *Pipeline) ResolveTransforms(pkg domain.PackageRecord) ([]domain.Transform, *domain.AssetError) {
	transforms := make([]domain.Transform, 0, len(pkg.Transforms))
	for _, ref := range pkg.Transforms {
		t, found, err := p.strategy.Resolve(pkg, ref)
		if err == nil && !found {
			err = domain.ErrTransformNotFound
		}
		if err != nil {
			return nil, &domain.AssetError{
				Kind:    domain.AssetErrorTransformResolution,
				Package: pkg.Dir,
				File:    ref.Name,
				Err:     err,
			}
		}
		transforms = append(transforms, t)
	}
	return transforms, nil
}

// BuildPackage writes the assets of pkg to out. Each file is written with a
// single call to out.Write as its transformed content followed by the asset
// separator. Failures are scoped to the pattern or file that caused them and
// returned; the rest of the package is still built.
func (p *Pipeline) BuildPackage(ctx context.Context, pkg domain.PackageRecord, out io.Writer) []*domain.AssetError {
	if !pkg.HasAssets() {
		return nil
	}

	transforms, resErr := p.ResolveTransforms(pkg)
	if resErr != nil {
		return []*domain.AssetError{resErr}
	}

	var (
		mu   sync.Mutex
		errs []*domain.AssetError
	)
	record := func(err *domain.AssetError) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	}

	var files errgroup.Group
	files.SetLimit(p.fileLimit)

	// Patterns expand in parallel and feed the bounded file group; it is only
	// waited on once no pattern can schedule more work.
	var patterns errgroup.Group
	for _, pattern := range pkg.StyleGlobs {
		patterns.Go(func() error {
			matches, err := p.globber.Glob(pkg.Dir, pattern)
			if err != nil {
				record(&domain.AssetError{Kind: domain.AssetErrorGlob, Package: pkg.Dir, File: pattern, Err: err})
				return nil
			}
			for _, file := range matches {
				if ctx.Err() != nil {
					break
				}
				files.Go(func() error {
					if err := p.buildFile(ctx, pkg, file, transforms, out); err != nil {
						record(err)
					}
					return nil
				})
			}
			return nil
		})
	}
	_ = patterns.Wait()

	_ = files.Wait()
	return errs
}

func (p *Pipeline) buildFile(
	ctx context.Context,
	pkg domain.PackageRecord,
	file string,
	transforms []domain.Transform,
	out io.Writer,
) *domain.AssetError {
	if ctx.Err() != nil {
		return nil
	}

	//nolint:gosec // Path comes from expanding the package's own patterns
	content, err := os.ReadFile(file)
	if err != nil {
		return &domain.AssetError{Kind: domain.AssetErrorIO, Package: pkg.Dir, File: file, Err: err}
	}

	content, err = Apply(ctx, file, content, transforms)
	if err != nil {
		return &domain.AssetError{Kind: domain.AssetErrorTransformStream, Package: pkg.Dir, File: file, Err: err}
	}

	segment := make([]byte, 0, len(content)+len(domain.AssetSeparator))
	segment = append(segment, content...)
	segment = append(segment, domain.AssetSeparator...)
	if _, err := out.Write(segment); err != nil {
		return &domain.AssetError{
			Kind:    domain.AssetErrorIO,
			Package: pkg.Dir,
			File:    file,
			Err:     zerr.Wrap(err, "failed to write asset"),
		}
	}

	if v, ok := ports.VertexFromContext(ctx); ok {
		v.Log(domain.LogLevelDebug, "finished writing "+file)
	}
	return nil
}

// Apply pipes content through transforms in order; an empty list returns it unchanged.
func Apply(ctx context.Context, file string, content []byte, transforms []domain.Transform) ([]byte, error) {
	for i, t := range transforms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := t(ctx, file, content)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "transform failed"), "index", i)
		}
		content = next
	}
	return content, nil
}
