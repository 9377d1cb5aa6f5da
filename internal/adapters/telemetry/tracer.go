// Package telemetry records module tasks as OpenTelemetry spans and fans vertices out to several sinks.
package telemetry

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
)

const instrumentationName = "go.trai.ch/ftool"

// Attribute keys set on module spans.
const (
	AttrModule      = attribute.Key("ftool.module")
	AttrStdoutBytes = attribute.Key("ftool.stdout_bytes")
	AttrStderrBytes = attribute.Key("ftool.stderr_bytes")
	AttrLogLevel    = attribute.Key("ftool.log.level")
	AttrLogMessage  = attribute.Key("ftool.log.message")
)

var _ ports.Telemetry = (*Tracer)(nil)

// Tracer implements ports.Telemetry with one span per module task.
type Tracer struct {
	provider trace.TracerProvider
	tracer   trace.Tracer
}

// NewTracer creates a Tracer on the given provider.
func NewTracer(provider trace.TracerProvider) *Tracer {
	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(instrumentationName),
	}
}

// Record starts a span for the module and returns a context carrying both the span and the vertex.
func (t *Tracer) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(AttrModule.String(name)))
	v := &spanVertex{span: span}
	return ports.ContextWithVertex(ctx, v), v
}

// Close shuts the provider down when it supports it, which flushes its span processors.
func (t *Tracer) Close() error {
	if s, ok := t.provider.(interface{ Shutdown(context.Context) error }); ok {
		return s.Shutdown(context.Background())
	}
	return nil
}

type spanVertex struct {
	span   trace.Span
	stdout byteCounter
	stderr byteCounter
	once   sync.Once
}

func (v *spanVertex) Stdout() io.Writer { return &v.stdout }
func (v *spanVertex) Stderr() io.Writer { return &v.stderr }

func (v *spanVertex) Log(level domain.LogLevel, msg string) {
	v.span.AddEvent("log", trace.WithAttributes(
		AttrLogLevel.String(level.String()),
		AttrLogMessage.String(msg),
	))
}

func (v *spanVertex) Complete(err error) {
	v.once.Do(func() {
		v.span.SetAttributes(
			AttrStdoutBytes.Int64(v.stdout.n.Load()),
			AttrStderrBytes.Int64(v.stderr.n.Load()),
		)
		if err != nil {
			v.span.RecordError(err)
			v.span.SetStatus(codes.Error, err.Error())
		} else {
			v.span.SetStatus(codes.Ok, "")
		}
		v.span.End()
	})
}

// byteCounter discards output and counts it.
type byteCounter struct {
	n atomic.Int64
}

func (c *byteCounter) Write(p []byte) (int, error) {
	c.n.Add(int64(len(p)))
	return len(p), nil
}
