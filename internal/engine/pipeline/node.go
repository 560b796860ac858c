package pipeline

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sheaf/internal/adapters/fs"         //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sheaf/internal/adapters/shell"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sheaf/internal/adapters/transforms" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/sheaf/internal/core/ports"
)

// NodeID is the unique identifier for the asset pipeline Graft node.
const NodeID graft.ID = "engine.pipeline"

func init() {
	graft.Register(graft.Node[*Pipeline]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.GlobberNodeID,
			transforms.NodeID,
			shell.NodeID,
		},
		Run: func(ctx context.Context) (*Pipeline, error) {
			globber, err := graft.Dep[ports.Globber](ctx)
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

			return New(globber, DefaultStrategy(registry, runner)), nil
		},
	})
}
