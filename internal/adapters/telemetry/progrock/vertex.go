package progrock

import (
	"fmt"
	"io"
	"sync"

	"github.com/vito/progrock"
	"go.trai.ch/ftool/internal/core/domain"
)

// Vertex implements ports.Vertex wrapping *progrock.VertexRecorder.
type Vertex struct {
	vertex *progrock.VertexRecorder
	once   sync.Once
}

// Stdout returns a writer to capture standard output stream.
func (v *Vertex) Stdout() io.Writer {
	return v.vertex.Stdout()
}

// Stderr returns a writer to capture error output stream.
func (v *Vertex) Stderr() io.Writer {
	return v.vertex.Stderr()
}

// Log writes msg to the vertex's stderr behind a "[LEVEL]" tag the TUI understands.
func (v *Vertex) Log(level domain.LogLevel, msg string) {
	_, _ = fmt.Fprintf(v.vertex.Stderr(), "[%s] %s\n", level.String(), msg)
}

// Complete marks the vertex as finished. Only the first call is recorded.
func (v *Vertex) Complete(err error) {
	v.once.Do(func() {
		v.vertex.Done(err)
	})
}
