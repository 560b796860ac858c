package config

// Sheaffile represents the structure of the sheaf.yaml configuration file.
type Sheaffile struct {
	Version    string              `yaml:"version"`
	Root       string              `yaml:"root"`
	Entries    []string            `yaml:"entries"`
	CacheFile  string              `yaml:"cacheFile"`
	Output     OutputDTO           `yaml:"output"`
	Transforms map[string][]string `yaml:"transforms"`
	Watch      WatchDTO            `yaml:"watch"`
}

// OutputDTO names the files the two outputs are written to.
type OutputDTO struct {
	Bundle string `yaml:"bundle"`
	Assets string `yaml:"assets"`
}

// WatchDTO configures watch mode.
type WatchDTO struct {
	Ignore   []string `yaml:"ignore"`
	Debounce string   `yaml:"debounce"`
}
