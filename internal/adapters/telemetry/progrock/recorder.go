// Package progrock provides the Progrock implementation of the telemetry port.
package progrock

import (
	"context"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/ftool/internal/core/ports"
)

var _ ports.Telemetry = (*Recorder)(nil)

// Recorder implements ports.Telemetry using the vito/progrock library.
type Recorder struct {
	tape *Tape
	rec  *progrock.Recorder
}

// New creates a Recorder writing to a fresh Tape.
func New() *Recorder {
	return NewRecorder(NewTape())
}

// NewRecorder creates a new Recorder writing to the given tape.
func NewRecorder(tape *Tape) *Recorder {
	return &Recorder{
		tape: tape,
		rec:  progrock.NewRecorder(tape),
	}
}

// Tape returns the tape the recorder writes to, for a UI to consume.
func (r *Recorder) Tape() *Tape {
	return r.tape
}

// Record starts a vertex named after the module. The digest is derived from the name,
// which is unique within a workspace.
func (r *Recorder) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	v := r.rec.Vertex(digest.FromString(name), name)
	vertex := &Vertex{vertex: v}
	return ports.ContextWithVertex(ctx, vertex), vertex
}

// Close closes the tape, which ends any reader once it has drained.
func (r *Recorder) Close() error {
	return r.tape.Close()
}
