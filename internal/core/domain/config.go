package domain

import "time"

// ProjectConfig is the resolved project configuration.
type ProjectConfig struct {
	// Root is the directory the configuration was loaded from.
	Root string
	// Entries are the entry files of the bundle, relative to Root.
	Entries []string
	// CacheFile is the location of the persisted dependency cache.
	CacheFile string
	// BundleOutput is where the main output is written. Empty means stdout.
	BundleOutput string
	// AssetOutput is where the asset output is written. Empty discards it.
	AssetOutput string
	// Commands declares named command transforms (name to argv).
	Commands map[string][]string
	// WatchIgnore are doublestar patterns excluded from watch mode.
	WatchIgnore []string
	// WatchDebounce is the window used to coalesce file changes.
	WatchDebounce time.Duration
}

// DefaultWatchDebounce is used when the configuration does not set one.
const DefaultWatchDebounce = 100 * time.Millisecond
