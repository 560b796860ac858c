package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sheaf/internal/core/ports"
)

const (
	WalkerNodeID  graft.ID = "adapter.fs.walker"
	GlobberNodeID graft.ID = "adapter.fs.globber"
	HasherNodeID  graft.ID = "adapter.fs.hasher"
)

func init() {
	// Walker Node (Concrete implementation needed by the watcher)
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	// Globber Node
	graft.Register(graft.Node[ports.Globber]{
		ID:        GlobberNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Globber, error) {
			return NewGlobber(), nil
		},
	})

	// Hasher Node
	graft.Register(graft.Node[ports.Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Hasher, error) {
			return NewHasher(), nil
		},
	})
}
