// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/sheaf/internal/adapters/cachefile"
	_ "go.trai.ch/sheaf/internal/adapters/config"
	_ "go.trai.ch/sheaf/internal/adapters/fs"
	_ "go.trai.ch/sheaf/internal/adapters/jsbundler"
	_ "go.trai.ch/sheaf/internal/adapters/logger"
	_ "go.trai.ch/sheaf/internal/adapters/shell"
	_ "go.trai.ch/sheaf/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/sheaf/internal/adapters/transforms"
	_ "go.trai.ch/sheaf/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/sheaf/internal/app"
	_ "go.trai.ch/sheaf/internal/engine/pipeline"
)
