package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/ftool/internal/adapters/telemetry"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
	"go.trai.ch/ftool/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func attr(kvs []attribute.KeyValue, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range kvs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracer_RecordsSpanPerModule(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	tracer := telemetry.NewTracer(tp)

	ctx, pending := tracer.Record(context.Background(), "@acme/core")
	fromCtx, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, pending, fromCtx)

	_, v := tracer.Record(context.Background(), "@acme/ui")
	_, _ = fmt.Fprint(v.Stdout(), "hello")
	_, _ = fmt.Fprint(v.Stderr(), "oops\n")
	v.Log(domain.LogLevelWarn, "slow")
	v.Complete(errors.New("exit status 2"))
	v.Complete(nil)

	ended := sr.Ended()
	require.Len(t, ended, 1, "only completed vertices end their span")
	span := ended[0]

	assert.Equal(t, "@acme/ui", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "exit status 2", span.Status().Description)

	module, ok := attr(span.Attributes(), telemetry.AttrModule)
	require.True(t, ok)
	assert.Equal(t, "@acme/ui", module.AsString())

	stdout, _ := attr(span.Attributes(), telemetry.AttrStdoutBytes)
	stderr, _ := attr(span.Attributes(), telemetry.AttrStderrBytes)
	assert.Equal(t, int64(5), stdout.AsInt64())
	assert.Equal(t, int64(5), stderr.AsInt64())

	var logged bool
	for _, ev := range span.Events() {
		if ev.Name == "log" {
			msg, _ := attr(ev.Attributes, telemetry.AttrLogMessage)
			level, _ := attr(ev.Attributes, telemetry.AttrLogLevel)
			logged = msg.AsString() == "slow" && level.AsString() == "WARN"
		}
	}
	assert.True(t, logged, "log call should become a span event")

	require.NoError(t, tracer.Close())
}

func TestSummary_Report(t *testing.T) {
	summary := telemetry.NewSummary()
	tracer := telemetry.NewTracer(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(summary)))

	for _, name := range []string{"core", "ui"} {
		_, v := tracer.Record(context.Background(), name)
		if name == "ui" {
			v.Complete(errors.New("boom"))
			continue
		}
		v.Complete(nil)
	}
	require.NoError(t, tracer.Close())

	entries := summary.Entries()
	require.Len(t, entries, 2)
	var failed []string
	for _, e := range entries {
		if e.Failed {
			failed = append(failed, e.Module)
		}
	}
	assert.Equal(t, []string{"ui"}, failed)

	var buf bytes.Buffer
	require.NoError(t, summary.Report(&buf))
	out := buf.String()
	assert.Contains(t, out, "MODULE")
	assert.Contains(t, out, "core")
	assert.Contains(t, out, "failed")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestSummary_EmptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, telemetry.NewSummary().Report(&buf))
	assert.Empty(t, buf.String())
}

func TestTee_FansOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	first, second := mocks.NewMockTelemetry(ctrl), mocks.NewMockTelemetry(ctrl)
	v1, v2 := mocks.NewMockVertex(ctrl), mocks.NewMockVertex(ctrl)
	var out1, out2 bytes.Buffer

	first.EXPECT().Record(gomock.Any(), "core").DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Vertex) {
		return ctx, v1
	})
	second.EXPECT().Record(gomock.Any(), "core").DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Vertex) {
		return ctx, v2
	})
	v1.EXPECT().Stdout().Return(&out1)
	v2.EXPECT().Stdout().Return(&out2)
	v1.EXPECT().Log(domain.LogLevelInfo, "hi")
	v2.EXPECT().Log(domain.LogLevelInfo, "hi")
	v1.EXPECT().Complete(nil)
	v2.EXPECT().Complete(nil)
	first.EXPECT().Close().Return(nil)
	second.EXPECT().Close().Return(errors.New("flush failed"))

	tee := telemetry.Tee(first, second)
	ctx, v := tee.Record(context.Background(), "core")

	fromCtx, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, v, fromCtx)

	_, _ = fmt.Fprint(v.Stdout(), "line\n")
	v.Log(domain.LogLevelInfo, "hi")
	v.Complete(nil)

	assert.Equal(t, "line\n", out1.String())
	assert.Equal(t, "line\n", out2.String())
	assert.ErrorContains(t, tee.Close(), "flush failed")
}

func TestTee_SingleSinkIsUnwrapped(t *testing.T) {
	sink := telemetry.NoOp{}
	assert.Equal(t, ports.Telemetry(sink), telemetry.Tee(sink))
}

func TestNoOp(t *testing.T) {
	ctx, v := telemetry.NoOp{}.Record(context.Background(), "x")
	_, ok := ports.VertexFromContext(ctx)
	assert.True(t, ok)

	n, err := v.Stdout().Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	v.Log(domain.LogLevelError, "ignored")
	v.Complete(nil)
	assert.NoError(t, telemetry.NoOp{}.Close())
}
