package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sheaf/internal/adapters/cachefile"          //nolint:depguard // Wired in app layer
	"go.trai.ch/sheaf/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/sheaf/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/sheaf/internal/adapters/jsbundler"          //nolint:depguard // Wired in app layer
	"go.trai.ch/sheaf/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/sheaf/internal/adapters/shell"              //nolint:depguard // Wired in app layer
	"go.trai.ch/sheaf/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/sheaf/internal/adapters/transforms"         //nolint:depguard // Wired in app layer
	"go.trai.ch/sheaf/internal/adapters/watcher"            //nolint:depguard // Wired in app layer
	"go.trai.ch/sheaf/internal/core/ports"
	"go.trai.ch/sheaf/internal/engine/pipeline"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components is everything the command layer needs.
type Components struct {
	App          *App
	Logger       ports.Logger
	Listener     ports.Listener
	ConfigLoader ports.ConfigLoader
	Telemetry    ports.Telemetry
	Transforms   ports.TransformRegistry
	Runner       ports.CommandRunner
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			cachefile.NodeID,
			jsbundler.NodeID,
			pipeline.NodeID,
			progrock.NodeID,
			fs.HasherNodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			logger.ListenerNodeID,
			config.NodeID,
			progrock.NodeID,
			transforms.NodeID,
			shell.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	store, err := graft.Dep[ports.CacheStore](ctx)
	if err != nil {
		return nil, err
	}

	bundler, err := graft.Dep[ports.Bundler](ctx)
	if err != nil {
		return nil, err
	}

	builder, err := graft.Dep[*pipeline.Pipeline](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	newWatcher, err := graft.Dep[ports.WatcherFactory](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(store, bundler, builder, telemetry, hasher, newWatcher, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	listener, err := graft.Dep[ports.Listener](ctx)
	if err != nil {
		return nil, err
	}

	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	registry, err := graft.Dep[ports.TransformRegistry](ctx)
	if err != nil {
		return nil, err
	}

	runner, err := graft.Dep[ports.CommandRunner](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:          app,
		Logger:       log,
		Listener:     listener,
		ConfigLoader: loader,
		Telemetry:    telemetry,
		Transforms:   registry,
		Runner:       runner,
	}, nil
}
