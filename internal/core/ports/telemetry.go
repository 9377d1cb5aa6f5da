package ports

import (
	"context"
	"io"

	"go.trai.ch/ftool/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Telemetry records the progress of module tasks.
type Telemetry interface {
	// Record starts a vertex for name and returns a context carrying it.
	Record(ctx context.Context, name string) (context.Context, Vertex)
	// Close ends the recording session.
	Close() error
}

// Vertex is the progress record of one module task.
type Vertex interface {
	// Stdout returns the writer for the task's standard output.
	Stdout() io.Writer
	// Stderr returns the writer for the task's error output.
	Stderr() io.Writer
	// Log attaches a message to the vertex.
	Log(level domain.LogLevel, msg string)
	// Complete marks the vertex as finished. A nil err means success.
	Complete(err error)
}

type vertexKey struct{}

// ContextWithVertex returns a copy of ctx carrying v.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex stored by ContextWithVertex, if any.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
