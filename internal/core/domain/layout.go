package domain

import "path/filepath"

const (
	// SheafDirName is the name of the internal workspace directory.
	SheafDirName = ".sheaf"

	// CacheFileName is the name of the persisted dependency cache.
	CacheFileName = "cache.json"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "sheaf.yaml"

	// AssetSeparator is appended after every asset file written to the asset stream.
	AssetSeparator = "\n"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultCachePath returns the default location of the dependency cache.
// It joins .sheaf and cache.json.
func DefaultCachePath() string {
	return filepath.Join(SheafDirName, CacheFileName)
}

// BundleOutputPaths returns the main and asset output paths for a bundle name.
func BundleOutputPaths(name string) (js, css string) {
	return name + ".js", name + ".css"
}
