package git

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ftool/internal/adapters/shell" //nolint:depguard // Wired in adapter wiring
	"go.trai.ch/ftool/internal/core/ports"
)

// NodeID is the unique identifier for the git file lister Graft node.
const NodeID graft.ID = "adapter.git"

func init() {
	graft.Register(graft.Node[ports.FileLister]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID},
		Run: func(ctx context.Context) (ports.FileLister, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			return NewLister(executor), nil
		},
	})
}
