package domain

import "fmt"

// AssetErrorKind classifies a failure in the asset pipeline.
type AssetErrorKind string

const (
	// AssetErrorGlob indicates a style pattern could not be expanded.
	AssetErrorGlob AssetErrorKind = "glob"
	// AssetErrorTransformResolution indicates a transform name could not be resolved.
	AssetErrorTransformResolution AssetErrorKind = "transform-resolution"
	// AssetErrorIO indicates an asset file could not be read.
	AssetErrorIO AssetErrorKind = "io"
	// AssetErrorTransformStream indicates a transform failed while processing a file.
	AssetErrorTransformStream AssetErrorKind = "transform-stream"
)

// AssetError is a unit-scoped failure of the asset pipeline. It never aborts
// the build; the affected file or pattern is skipped.
type AssetError struct {
	Kind    AssetErrorKind
	Package string
	// File is the asset file, the glob pattern, or the transform name depending on Kind.
	File string
	Err  error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("%s error in package %s (%s): %v", e.Kind, e.Package, e.File, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}
