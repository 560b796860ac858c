// Package registry tracks which packages have been seen and which package owns each file.
package registry

import "go.trai.ch/sheaf/internal/core/domain"

// Registry is the process-lifetime record of packages and file ownership.
// Registration is first-writer-wins for both tables. A Registry is not safe
// for concurrent use; a build session mutates it from a single goroutine.
type Registry struct {
	packages map[string]domain.PackageRecord
	owners   map[string]string
	resolved map[string]struct{}
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		packages: make(map[string]domain.PackageRecord),
		owners:   make(map[string]string),
		resolved: make(map[string]struct{}),
	}
}

// FromSnapshot seeds a Registry with the packages and ownership recorded in s.
// Seeded packages count as already resolved.
func FromSnapshot(s *domain.Snapshot) *Registry {
	r := New()
	for dir, pkg := range s.Packages {
		pkg.Dir = dir
		r.packages[dir] = pkg
		r.resolved[dir] = struct{}{}
	}
	for file, dir := range s.FilesPackagePaths {
		r.owners[file] = dir
	}
	return r
}

// RegisterPackage records pkg under its directory unless a record already
// exists, and records file as owned by that directory unless file already has
// an owner. It reports true exactly once per distinct directory.
func (r *Registry) RegisterPackage(file string, pkg domain.PackageRecord) bool {
	if _, ok := r.packages[pkg.Dir]; !ok {
		r.packages[pkg.Dir] = pkg
	}
	if file != "" {
		r.RegisterFileOwnership(file, pkg.Dir)
	}

	if _, seen := r.resolved[pkg.Dir]; seen {
		return false
	}
	r.resolved[pkg.Dir] = struct{}{}
	return true
}

// RegisterFileOwnership records dir as the owner of file unless file already has an owner.
func (r *Registry) RegisterFileOwnership(file, dir string) {
	if _, ok := r.owners[file]; !ok {
		r.owners[file] = dir
	}
}

// LookupOwner returns the package directory that owns file.
func (r *Registry) LookupOwner(file string) (string, bool) {
	dir, ok := r.owners[file]
	return dir, ok
}

// Lookup returns the package registered under dir.
func (r *Registry) Lookup(dir string) (domain.PackageRecord, bool) {
	pkg, ok := r.packages[dir]
	return pkg, ok
}

// Len returns the number of registered packages.
func (r *Registry) Len() int {
	return len(r.packages)
}

// Export copies the registry tables into s, replacing its package and ownership tables.
func (r *Registry) Export(s *domain.Snapshot) {
	s.Packages = make(map[string]domain.PackageRecord, len(r.packages))
	for dir, pkg := range r.packages {
		s.Packages[dir] = pkg
	}
	s.FilesPackagePaths = make(map[string]string, len(r.owners))
	for file, dir := range r.owners {
		s.FilesPackagePaths[file] = dir
	}
}
