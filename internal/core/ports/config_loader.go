package ports

import "go.trai.ch/sheaf/internal/core/domain"

// ConfigLoader defines the interface for loading the project configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration from the given working directory.
	// A missing configuration file yields defaults rather than an error.
	Load(cwd string) (*domain.ProjectConfig, error)
	// LoadFile reads the configuration file at path.
	LoadFile(path string) (*domain.ProjectConfig, error)
}
