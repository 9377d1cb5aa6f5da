package workspace

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ftool/internal/adapters/logger" //nolint:depguard // Wired in adapter wiring
	"go.trai.ch/ftool/internal/core/ports"
)

// NodeID is the unique identifier for the workspace loader Graft node.
const NodeID graft.ID = "adapter.workspace"

func init() {
	graft.Register(graft.Node[ports.ModuleLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ModuleLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})
}
