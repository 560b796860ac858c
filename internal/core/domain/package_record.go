package domain

import "context"

// Transform rewrites the content of a single asset file.
type Transform func(ctx context.Context, file string, src []byte) ([]byte, error)

// TransformRef is a transform declared by a package. Fn is set when the
// transform was supplied as a callable; only Name is persisted.
type TransformRef struct {
	Name string
	Fn   Transform
}

// NamedTransform returns a reference resolved by name.
func NamedTransform(name string) TransformRef {
	return TransformRef{Name: name}
}

// MarshalText implements encoding.TextMarshaler.
func (r TransformRef) MarshalText() ([]byte, error) {
	return []byte(r.Name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *TransformRef) UnmarshalText(text []byte) error {
	r.Name = string(text)
	r.Fn = nil
	return nil
}

// PackageRecord is the manifest-derived description of a package that may
// contribute stylesheet assets.
type PackageRecord struct {
	// Name is the package name from the manifest, if any.
	Name string `json:"name,omitempty"`
	// Dir is the absolute package directory and the registry key.
	Dir string `json:"directoryPath"`
	// StyleGlobs are patterns relative to Dir.
	StyleGlobs []string `json:"styleGlobs,omitempty"`
	// Transforms are applied in order to every matched file.
	Transforms []TransformRef `json:"transformNames,omitempty"`
}

// HasAssets reports whether the package declares any style patterns.
func (p PackageRecord) HasAssets() bool {
	return len(p.StyleGlobs) > 0
}
