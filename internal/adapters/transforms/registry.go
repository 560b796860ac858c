// Package transforms provides the global registry of named asset transforms.
package transforms

import (
	"maps"
	"slices"
	"sync"

	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/core/ports"
)

var _ ports.TransformRegistry = (*Registry)(nil)

// Registry implements ports.TransformRegistry. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]domain.Transform
}

// NewRegistry returns a registry preloaded with the built-in transforms.
func NewRegistry() *Registry {
	r := &Registry{transforms: make(map[string]domain.Transform)}
	for name, t := range Builtins() {
		r.transforms[name] = t
	}
	return r
}

// Lookup returns the transform registered under name.
func (r *Registry) Lookup(name string) (domain.Transform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transforms[name]
	return t, ok
}

// Register adds or replaces a named transform.
func (r *Registry) Register(name string, t domain.Transform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[name] = t
}

// RegisterCommands registers every configured command in reg under its name.
// Commands run in root.
func RegisterCommands(reg ports.TransformRegistry, runner ports.CommandRunner, root string, commands map[string][]string) {
	for name, argv := range commands {
		reg.Register(name, runner.Command(argv, root))
	}
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.transforms))
}
