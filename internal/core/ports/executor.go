// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"
)

// Executor runs one external command.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs argv in dir.
	//
	// Output goes to stdout and stderr when they are non-nil. Otherwise it goes to the
	// Vertex carried by ctx, and without one it is forwarded to the logger line by line.
	//
	// A non-zero exit is returned as an error carrying the exit code.
	Execute(ctx context.Context, dir string, argv []string, stdout, stderr io.Writer) error
}

type ptyKey struct{}

// ContextWithPTY marks commands executed under ctx to run attached to a pseudo-terminal.
func ContextWithPTY(ctx context.Context) context.Context {
	return context.WithValue(ctx, ptyKey{}, true)
}

// PTYFromContext reports whether ContextWithPTY was applied to ctx.
func PTYFromContext(ctx context.Context) bool {
	on, _ := ctx.Value(ptyKey{}).(bool)
	return on
}
