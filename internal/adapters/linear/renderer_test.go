package linear_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ftool/internal/adapters/linear"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newRenderer(stdout, stderr *bytes.Buffer, clock *fakeClock) *linear.Renderer {
	return linear.NewRenderer(stdout, stderr, linear.WithProfile(termenv.Ascii), linear.WithClock(clock.Now))
}

func TestRenderer_Golden(t *testing.T) {
	var out bytes.Buffer
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	start := clock.now
	r := newRenderer(&out, &out, clock)

	_, core := r.Record(context.Background(), "core")
	_, ui := r.Record(context.Background(), "ui")

	_, _ = fmt.Fprint(core.Stdout(), "compiling\nhalf")
	_, _ = fmt.Fprint(ui.Stderr(), "warning: unused import\n")
	core.Log(domain.LogLevelWarn, "slow step")

	clock.now = start.Add(1500 * time.Millisecond)
	core.Complete(nil)

	clock.now = start.Add(2 * time.Second)
	ui.Complete(errors.New("exit status 2"))
	ui.Complete(nil)

	require.NoError(t, r.Close())

	g := goldie.New(t)
	g.Assert(t, t.Name(), out.Bytes())
}

func TestRenderer_RecordCarriesVertex(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newRenderer(&stdout, &stderr, &fakeClock{now: time.Now()})

	ctx, v := r.Record(context.Background(), "api")
	got, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, v, got)
	assert.Contains(t, stderr.String(), "[api] Starting...")
}

func TestRenderer_PartialLines(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newRenderer(&stdout, &stderr, &fakeClock{now: time.Now()})
	_, v := r.Record(context.Background(), "task1")

	_, _ = v.Stdout().Write([]byte("partial"))
	assert.NotContains(t, stdout.String(), "partial", "partial line should not be printed immediately")

	_, _ = v.Stdout().Write([]byte(" line\r\n\n"))
	assert.Equal(t, "[task1] partial line\n", stdout.String(), "blank lines are dropped")

	_, _ = v.Stdout().Write([]byte("unflushed"))
	v.Complete(nil)
	assert.Contains(t, stdout.String(), "[task1] unflushed\n")
}

func TestRenderer_ConcurrentVertices(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newRenderer(&stdout, &stderr, &fakeClock{now: time.Now()})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("mod%d", i)
			_, v := r.Record(context.Background(), name)
			for j := range 20 {
				_, _ = fmt.Fprintf(v.Stdout(), "line %d\n", j)
			}
			v.Complete(nil)
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(stdout.String(), "\n"), "\n")
	assert.Len(t, lines, 8*20)
	for _, line := range lines {
		assert.Regexp(t, `^\[mod\d\] line \d+$`, line)
	}
}

func TestRenderer_ColoredPrefixIsStable(t *testing.T) {
	var first, second bytes.Buffer
	for _, buf := range []*bytes.Buffer{&first, &second} {
		r := linear.NewRenderer(buf, buf, linear.WithProfile(termenv.ANSI))
		_, v := r.Record(context.Background(), "@acme/core")
		_, _ = fmt.Fprintln(v.Stdout(), "hello")
	}

	assert.Contains(t, first.String(), "\x1b[")
	assert.Equal(t, first.String(), second.String())
}
