package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/core/ports"
)

// Strategy resolves a transform reference declared by a package. It reports
// found=false when it does not apply; an error stops the whole resolution.
type Strategy interface {
	Resolve(pkg domain.PackageRecord, ref domain.TransformRef) (t domain.Transform, found bool, err error)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(pkg domain.PackageRecord, ref domain.TransformRef) (domain.Transform, bool, error)

// Resolve calls f.
func (f StrategyFunc) Resolve(pkg domain.PackageRecord, ref domain.TransformRef) (domain.Transform, bool, error) {
	return f(pkg, ref)
}

// Chain tries each strategy in order and stops at the first that finds the transform.
func Chain(strategies ...Strategy) Strategy {
	return StrategyFunc(func(pkg domain.PackageRecord, ref domain.TransformRef) (domain.Transform, bool, error) {
		for _, s := range strategies {
			t, found, err := s.Resolve(pkg, ref)
			if err != nil {
				return nil, false, err
			}
			if found {
				return t, true, nil
			}
		}
		return nil, false, nil
	})
}

// DefaultStrategy is the standard resolution order: a callable reference, a
// globally named transform, a path relative to the package, and finally an
// executable installed in the package's own node_modules/.bin.
func DefaultStrategy(registry ports.TransformRegistry, runner ports.CommandRunner) Strategy {
	return Chain(
		Direct(),
		Global(registry),
		Relative(runner),
		PackageLocal(runner),
	)
}

// Direct uses the callable carried by the reference.
func Direct() Strategy {
	return StrategyFunc(func(_ domain.PackageRecord, ref domain.TransformRef) (domain.Transform, bool, error) {
		return ref.Fn, ref.Fn != nil, nil
	})
}

// Global looks the name up in the global transform registry.
func Global(registry ports.TransformRegistry) Strategy {
	return StrategyFunc(func(_ domain.PackageRecord, ref domain.TransformRef) (domain.Transform, bool, error) {
		t, ok := registry.Lookup(ref.Name)
		return t, ok, nil
	})
}

// Relative resolves path-like names against the package directory and runs
// the executable found there.
func Relative(runner ports.CommandRunner) Strategy {
	return StrategyFunc(func(pkg domain.PackageRecord, ref domain.TransformRef) (domain.Transform, bool, error) {
		if !isPathLike(ref.Name) {
			return nil, false, nil
		}
		path := ref.Name
		if !filepath.IsAbs(path) {
			path = filepath.Join(pkg.Dir, path)
		}
		if !isExecutable(path) {
			return nil, false, nil
		}
		return runner.Command([]string{path}, pkg.Dir), true, nil
	})
}

// PackageLocal resolves bare names to <package>/node_modules/.bin/<name>.
func PackageLocal(runner ports.CommandRunner) Strategy {
	return StrategyFunc(func(pkg domain.PackageRecord, ref domain.TransformRef) (domain.Transform, bool, error) {
		if ref.Name == "" || isPathLike(ref.Name) {
			return nil, false, nil
		}
		path := filepath.Join(pkg.Dir, "node_modules", ".bin", ref.Name)
		if !isExecutable(path) {
			return nil, false, nil
		}
		return runner.Command([]string{path}, pkg.Dir), true, nil
	})
}

func isPathLike(name string) bool {
	return strings.HasPrefix(name, "./") ||
		strings.HasPrefix(name, "../") ||
		filepath.IsAbs(name)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0o111 != 0
}
