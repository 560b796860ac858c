package logger

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sheaf/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the logger Graft node.
	NodeID graft.ID = "adapter.logger"
	// ListenerNodeID is the unique identifier for the logging listener Graft node.
	ListenerNodeID graft.ID = "adapter.logger.listener"
)

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Logger, error) {
			return New(), nil
		},
	})

	graft.Register(graft.Node[ports.Listener]{
		ID:        ListenerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{NodeID},
		Run: func(ctx context.Context) (ports.Listener, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewListener(log), nil
		},
	})
}
