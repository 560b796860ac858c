package assets

import (
	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/engine/registry"
)

// Tracker is the per-session asset build state machine. It guarantees at most
// one pipeline run per package per session. It is owned by the session loop
// goroutine, so the check of a package's state and its transition to Started
// cannot be interleaved with another trigger.
type Tracker struct {
	registry *registry.Registry
	launch   func(pkg domain.PackageRecord)
	states   map[string]domain.AssetBuildState
	started  int
}

// NewTracker creates a tracker that resolves packages through reg and calls
// launch for every build it starts.
func NewTracker(reg *registry.Registry, launch func(pkg domain.PackageRecord)) *Tracker {
	return &Tracker{
		registry: reg,
		launch:   launch,
		states:   make(map[string]domain.AssetBuildState),
	}
}

// FileResolved triggers the build of the package that owns file, if known.
func (t *Tracker) FileResolved(file string) bool {
	dir, ok := t.registry.LookupOwner(file)
	if !ok {
		return false
	}
	return t.Trigger(dir)
}

// PackageResolved triggers the build of the package registered under dir.
func (t *Tracker) PackageResolved(dir string) bool {
	return t.Trigger(dir)
}

// Trigger starts the build of dir unless one was already started in this
// session. Packages without style patterns complete immediately.
func (t *Tracker) Trigger(dir string) bool {
	if t.states[dir] != domain.AssetAbsent {
		return false
	}
	pkg, ok := t.registry.Lookup(dir)
	if !ok {
		return false
	}

	if !pkg.HasAssets() {
		t.states[dir] = domain.AssetComplete
		return false
	}

	t.states[dir] = domain.AssetStarted
	t.started++
	t.launch(pkg)
	return true
}

// Complete marks the build of dir as finished.
func (t *Tracker) Complete(dir string) {
	next, ok := t.states[dir].Advance(domain.AssetComplete)
	if !ok {
		return
	}
	t.states[dir] = next
	t.started--
}

// State returns the state of dir in this session.
func (t *Tracker) State(dir string) domain.AssetBuildState {
	return t.states[dir]
}

// Outstanding reports whether any started build has not completed.
func (t *Tracker) Outstanding() bool {
	return t.started > 0
}
