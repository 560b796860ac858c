package ports

import "go.trai.ch/sheaf/internal/core/domain"

//go:generate go run go.uber.org/mock/mockgen -source=transform.go -destination=mocks/mock_transform.go -package=mocks

// TransformRegistry holds globally named transforms.
type TransformRegistry interface {
	// Lookup returns the transform registered under name.
	Lookup(name string) (domain.Transform, bool)
	// Register adds or replaces a named transform.
	Register(name string, t domain.Transform)
}

// CommandRunner adapts external executables into transforms.
type CommandRunner interface {
	// Command returns a transform that pipes content through argv, run in dir.
	Command(argv []string, dir string) domain.Transform
}
