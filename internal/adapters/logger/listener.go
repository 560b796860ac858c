package logger

import (
	"errors"
	"fmt"
	"io/fs"

	"go.trai.ch/sheaf/internal/core/domain"
	"go.trai.ch/sheaf/internal/core/ports"
)

// Listener renders build notifications through a logger.
type Listener struct {
	log ports.Logger
}

// NewListener creates a Listener writing to log.
func NewListener(log ports.Logger) *Listener {
	return &Listener{log: log}
}

// Notify implements ports.Listener.
func (l *Listener) Notify(n domain.Notification) {
	switch n := n.(type) {
	case domain.LogNotification:
		l.log.Info(n.Message)
	case domain.TimeNotification:
		l.log.Debug("build finished", "elapsed", n.Elapsed)
	case domain.BytesNotification:
		l.log.Debug("bundle size", "bytes", n.Bytes)
	case domain.UpdateNotification:
		if len(n.Invalidated) > 0 {
			l.log.Info(fmt.Sprintf("%d cached modules invalidated", len(n.Invalidated)))
		}
		for _, id := range n.Invalidated {
			l.log.Debug("invalidated", "module", id)
		}
	case domain.PackageResolvedNotification:
		l.log.Debug("package resolved", "package", n.Dir)
	case domain.AssetErrorNotification:
		l.log.Warn(n.Err.Error(), "kind", string(n.Err.Kind), "package", n.Err.Package, "file", n.Err.File)
	case domain.CacheReadErrorNotification:
		if errors.Is(n.Err, fs.ErrNotExist) {
			l.log.Debug("no cache file, starting cold", "path", n.Path)
			return
		}
		l.log.Warn("ignoring unreadable cache file", "path", n.Path, "error", n.Err)
	case domain.CacheWriteErrorNotification:
		l.log.Warn("failed to write cache file", "path", n.Path, "error", n.Err)
	case domain.CacheWrittenNotification:
		l.log.Debug("cache written", "path", n.Path)
	}
}
