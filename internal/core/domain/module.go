package domain

import (
	"maps"
	"slices"
)

// ModuleRecord describes one resolved module in the dependency graph.
type ModuleRecord struct {
	// ID is the identifier the bundler assigned to the module.
	ID string `json:"id"`
	// File is the source file the module was read from.
	File string `json:"file"`
	// Deps maps each require specifier to the id of the module it resolved to.
	Deps map[string]string `json:"deps"`
	// Source is the module body as read from File.
	Source string `json:"source,omitempty"`
	// Entry marks modules that were requested directly.
	Entry bool `json:"entry,omitempty"`
}

// DependencyIDs returns the ids of the direct dependencies, sorted and deduplicated.
func (m ModuleRecord) DependencyIDs() []string {
	ids := slices.Collect(maps.Values(m.Deps))
	slices.Sort(ids)
	return slices.Compact(ids)
}
