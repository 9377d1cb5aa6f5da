package telemetry

import (
	"context"
	"io"

	"github.com/hashicorp/go-multierror"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
)

// Tee returns a Telemetry that records every vertex in all sinks.
func Tee(sinks ...ports.Telemetry) ports.Telemetry {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return tee(sinks)
}

type tee []ports.Telemetry

func (t tee) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	vertices := make(teeVertex, 0, len(t))
	for _, sink := range t {
		var v ports.Vertex
		ctx, v = sink.Record(ctx, name)
		vertices = append(vertices, v)
	}
	return ports.ContextWithVertex(ctx, vertices), vertices
}

func (t tee) Close() error {
	var errs *multierror.Error
	for _, sink := range t {
		if err := sink.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

type teeVertex []ports.Vertex

func (v teeVertex) Stdout() io.Writer {
	ws := make([]io.Writer, len(v))
	for i, vv := range v {
		ws[i] = vv.Stdout()
	}
	return io.MultiWriter(ws...)
}

func (v teeVertex) Stderr() io.Writer {
	ws := make([]io.Writer, len(v))
	for i, vv := range v {
		ws[i] = vv.Stderr()
	}
	return io.MultiWriter(ws...)
}

func (v teeVertex) Log(level domain.LogLevel, msg string) {
	for _, vv := range v {
		vv.Log(level, msg)
	}
}

func (v teeVertex) Complete(err error) {
	for _, vv := range v {
		vv.Complete(err)
	}
}
