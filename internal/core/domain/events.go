package domain

// BundlerEvent is a discovery event reported by the module bundler during a walk.
// The set of implementations is closed.
type BundlerEvent interface {
	bundlerEvent()
}

// DependencyEvent reports a resolved module. Mtime is the epoch-millisecond
// modification time of Record.File taken before its source was read; zero
// means the bundler did not observe it.
type DependencyEvent struct {
	Record ModuleRecord
	Mtime  int64
}

// PackageEvent reports the package that owns File.
type PackageEvent struct {
	File    string
	Package PackageRecord
}

// FileEvent reports that File was resolved during the walk.
type FileEvent struct {
	File string
}

func (DependencyEvent) bundlerEvent() {}
func (PackageEvent) bundlerEvent()    {}
func (FileEvent) bundlerEvent()       {}
