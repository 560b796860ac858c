package domain

// Snapshot is the persisted form of the process cache.
type Snapshot struct {
	// Modules is keyed by module id.
	Modules map[string]ModuleRecord `json:"modules"`
	// Packages is keyed by package directory.
	Packages map[string]PackageRecord `json:"packages"`
	// FilesPackagePaths maps a source file to its owning package directory.
	FilesPackagePaths map[string]string `json:"filesPackagePaths"`
	// Mtimes holds the last observed modification time (epoch milliseconds) per file.
	Mtimes map[string]int64 `json:"mtimes"`
}

// NewSnapshot returns an empty, usable snapshot.
func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.Normalize()
	return s
}

// Normalize replaces nil tables with empty ones, e.g. after decoding a partial document.
func (s *Snapshot) Normalize() {
	if s.Modules == nil {
		s.Modules = make(map[string]ModuleRecord)
	}
	if s.Packages == nil {
		s.Packages = make(map[string]PackageRecord)
	}
	if s.FilesPackagePaths == nil {
		s.FilesPackagePaths = make(map[string]string)
	}
	if s.Mtimes == nil {
		s.Mtimes = make(map[string]int64)
	}
}

// PutModule records a module, replacing any previous record with the same id.
func (s *Snapshot) PutModule(m ModuleRecord) {
	s.Modules[m.ID] = m
}

// HasMtime reports whether a modification time is known for file.
func (s *Snapshot) HasMtime(file string) bool {
	_, ok := s.Mtimes[file]
	return ok
}
