package domain

import "go.trai.ch/zerr"

var (
	// ErrBuildInProgress is returned when Bundle is called while a previous build is still running.
	ErrBuildInProgress = zerr.New("build already in progress")

	// ErrBundleFailed is returned when the main bundle output could not be produced.
	ErrBundleFailed = zerr.New("bundle failed")

	// ErrNoEntries is returned when a build is requested without entry files.
	ErrNoEntries = zerr.New("no entry files specified")

	// ErrModuleNotFound is returned when a require specifier cannot be resolved to a file.
	ErrModuleNotFound = zerr.New("module not found")

	// ErrTransformNotFound is returned when no resolution strategy can produce a transform.
	ErrTransformNotFound = zerr.New("transform not found")

	// ErrInvalidConfig is returned when the project configuration cannot be parsed.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrUnsupportedVersion is returned when the configuration declares an unknown schema version.
	ErrUnsupportedVersion = zerr.New("unsupported configuration version")
)
