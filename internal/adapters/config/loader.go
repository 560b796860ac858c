// Package config provides the configuration loader for sheaf.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the only schema version this loader understands.
const SupportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds sheaf.yaml in cwd or its ancestors and resolves it. Without a
// configuration file the defaults rooted at cwd are returned.
func (l *Loader) Load(cwd string) (*domain.ProjectConfig, error) {
	configPath, ok := findConfiguration(cwd)
	if !ok {
		return defaults(cwd), nil
	}

	var sheaffile Sheaffile
	if err := readAndUnmarshalYAML(configPath, &sheaffile); err != nil {
		return nil, err
	}

	return l.resolve(configPath, &sheaffile)
}

// LoadFile resolves the configuration file at path.
func (l *Loader) LoadFile(path string) (*domain.ProjectConfig, error) {
	var sheaffile Sheaffile
	if err := readAndUnmarshalYAML(path, &sheaffile); err != nil {
		return nil, err
	}
	return l.resolve(path, &sheaffile)
}

func findConfiguration(cwd string) (string, bool) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false
		}
		currentDir = parentDir
	}
}

func defaults(root string) *domain.ProjectConfig {
	return &domain.ProjectConfig{
		Root:          filepath.Clean(root),
		CacheFile:     filepath.Join(root, domain.DefaultCachePath()),
		Commands:      map[string][]string{},
		WatchDebounce: domain.DefaultWatchDebounce,
	}
}

func (l *Loader) resolve(configPath string, sheaffile *Sheaffile) (*domain.ProjectConfig, error) {
	if sheaffile.Version != "" && sheaffile.Version != SupportedVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedVersion, "cannot load "+domain.ConfigFileName), "version", sheaffile.Version)
	}

	cfg := defaults(resolveRoot(configPath, sheaffile.Root))
	cfg.Entries = canonicalizeStrings(sheaffile.Entries)
	cfg.BundleOutput = resolvePath(cfg.Root, sheaffile.Output.Bundle)
	cfg.AssetOutput = resolvePath(cfg.Root, sheaffile.Output.Assets)
	if sheaffile.CacheFile != "" {
		cfg.CacheFile = resolvePath(cfg.Root, sheaffile.CacheFile)
	}

	for name, argv := range sheaffile.Transforms {
		if len(argv) == 0 || argv[0] == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "transform has no command"), "transform", name)
		}
		cfg.Commands[name] = slices.Clone(argv)
	}

	for _, pattern := range sheaffile.Watch.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			l.Logger.Warn("ignoring invalid watch pattern", "pattern", pattern)
			continue
		}
		cfg.WatchIgnore = append(cfg.WatchIgnore, pattern)
	}

	if sheaffile.Watch.Debounce != "" {
		debounce, err := time.ParseDuration(sheaffile.Watch.Debounce)
		if err != nil || debounce < 0 {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "invalid watch debounce"), "debounce", sheaffile.Watch.Debounce)
		}
		cfg.WatchDebounce = debounce
	}

	return cfg, nil
}

func canonicalizeStrings(strs []string) []string {
	if len(strs) == 0 {
		return nil
	}

	sorted := make([]string, 0, len(strs))
	for _, s := range strs {
		sorted = append(sorted, filepath.Clean(s))
	}
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

func resolvePath(root, path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	return resolvePath(configDir, configuredRoot)
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is found by walking up from the working directory
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read config file"), "path", configPath)
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, parseErr.Error()), "path", configPath)
	}
	return nil
}
