package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ftool/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/ftool/internal/adapters/git"       //nolint:depguard // Wired in app layer
	"go.trai.ch/ftool/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/ftool/internal/adapters/shell"     //nolint:depguard // Wired in app layer
	"go.trai.ch/ftool/internal/adapters/workspace" //nolint:depguard // Wired in app layer
	"go.trai.ch/ftool/internal/core/ports"
	"go.trai.ch/ftool/internal/engine/scheduler"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			workspace.NodeID,
			shell.NodeID,
			git.NodeID,
			scheduler.NodeID,
			logger.VerbosityNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	modules, err := graft.Dep[ports.ModuleLoader](ctx)
	if err != nil {
		return nil, err
	}
	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}
	files, err := graft.Dep[ports.FileLister](ctx)
	if err != nil {
		return nil, err
	}
	sched, err := graft.Dep[*scheduler.Scheduler](ctx)
	if err != nil {
		return nil, err
	}
	concrete, err := graft.Dep[*logger.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, modules, executor, files, sched, concrete).
		WithVerbosity(concrete.SetVerbose), nil
}
