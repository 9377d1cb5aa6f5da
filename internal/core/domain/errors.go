package domain

import "go.trai.ch/zerr"

var (
	// ErrMissingDependency is returned when a module requires a name that is not part of the workspace.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrInconsistentGraph is returned when the graph bookkeeping does not account for every module.
	ErrInconsistentGraph = zerr.New("inconsistent dependency graph")

	// ErrModuleAlreadyExists is returned when two workspace members share the same name.
	ErrModuleAlreadyExists = zerr.New("module already exists")

	// ErrCycleDetected is returned when a cycle is detected in the module dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskFailed is returned when the task invoked for a module fails.
	ErrTaskFailed = zerr.New("task failed")

	// ErrUnknownStrategy is returned when a wait strategy name is not recognized.
	ErrUnknownStrategy = zerr.New("unknown wait strategy")

	// ErrInvalidVersionBump is returned when a version bump argument is not understood.
	ErrInvalidVersionBump = zerr.New("invalid version bump")

	// ErrInvalidVersion is returned when a module version cannot be parsed for bumping.
	ErrInvalidVersion = zerr.New("invalid module version")

	// ErrInvalidManifest is returned when a package manifest is malformed.
	ErrInvalidManifest = zerr.New("invalid package manifest")

	// ErrNoWorkspaces is returned when the root manifest declares no workspaces.
	ErrNoWorkspaces = zerr.New("no workspaces declared")

	// ErrNoCommand is returned when a run is requested without a command.
	ErrNoCommand = zerr.New("no command specified")

	// ErrUnknownPackageManager is returned for package managers other than npm, yarn, pnpm and bun.
	ErrUnknownPackageManager = zerr.New("unknown package manager")

	// ErrInvalidLineCountArgs is returned when a line-count argument is neither a suffix nor an exclusion.
	ErrInvalidLineCountArgs = zerr.New("invalid line count arguments")
)
