package domain

import "time"

// Notification is an outbound event delivered to listeners. The set of
// implementations is closed.
type Notification interface {
	notification()
}

// LogNotification carries a human readable summary line.
type LogNotification struct {
	Message string
}

// TimeNotification carries the wall time of a completed build.
type TimeNotification struct {
	Elapsed time.Duration
}

// BytesNotification carries the size of the main output.
type BytesNotification struct {
	Bytes int64
}

// UpdateNotification lists the module ids dropped by cache invalidation.
type UpdateNotification struct {
	Invalidated []string
}

// PackageResolvedNotification is emitted the first time a package directory is seen.
type PackageResolvedNotification struct {
	Dir string
}

// AssetErrorNotification reports a unit-scoped asset pipeline failure.
type AssetErrorNotification struct {
	Err *AssetError
}

// CacheReadErrorNotification reports that the cache file could not be loaded.
type CacheReadErrorNotification struct {
	Path string
	Err  error
}

// CacheWriteErrorNotification reports that the cache file could not be written.
type CacheWriteErrorNotification struct {
	Path string
	Err  error
}

// CacheWrittenNotification reports a successful cache write.
type CacheWrittenNotification struct {
	Path string
}

func (LogNotification) notification()             {}
func (TimeNotification) notification()            {}
func (BytesNotification) notification()           {}
func (UpdateNotification) notification()          {}
func (PackageResolvedNotification) notification() {}
func (AssetErrorNotification) notification()      {}
func (CacheReadErrorNotification) notification()  {}
func (CacheWriteErrorNotification) notification() {}
func (CacheWrittenNotification) notification()    {}
