package telemetry

import (
	"context"
	"io"

	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
)

// NoOp is a Telemetry whose vertices discard everything.
type NoOp struct{}

// Record returns ctx carrying a discarding vertex.
func (NoOp) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	return ports.ContextWithVertex(ctx, noopVertex{}), noopVertex{}
}

// Close does nothing.
func (NoOp) Close() error { return nil }

type noopVertex struct{}

func (noopVertex) Stdout() io.Writer           { return io.Discard }
func (noopVertex) Stderr() io.Writer           { return io.Discard }
func (noopVertex) Log(domain.LogLevel, string) {}
func (noopVertex) Complete(error)              {}
