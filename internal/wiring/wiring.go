// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/ftool/internal/adapters/config"
	_ "go.trai.ch/ftool/internal/adapters/git"
	_ "go.trai.ch/ftool/internal/adapters/logger"
	_ "go.trai.ch/ftool/internal/adapters/shell"
	_ "go.trai.ch/ftool/internal/adapters/workspace"
	// Register app and engine nodes.
	_ "go.trai.ch/ftool/internal/app"
	_ "go.trai.ch/ftool/internal/engine/scheduler"
)
