package transforms

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sheaf/internal/core/ports"
)

// NodeID is the unique identifier for the transform registry Graft node.
const NodeID graft.ID = "adapter.transforms"

func init() {
	graft.Register(graft.Node[ports.TransformRegistry]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.TransformRegistry, error) {
			return NewRegistry(), nil
		},
	})
}
