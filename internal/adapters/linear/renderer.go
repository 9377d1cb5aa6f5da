// Package linear provides a synchronous, line-buffered telemetry sink for CI environments.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/muesli/termenv"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
)

var _ ports.Telemetry = (*Renderer)(nil)

// prefixColors are cycled through by module name so concurrent output stays distinguishable.
var prefixColors = []termenv.ANSIColor{
	termenv.ANSICyan,
	termenv.ANSIMagenta,
	termenv.ANSIBlue,
	termenv.ANSIYellow,
	termenv.ANSIBrightCyan,
	termenv.ANSIBrightMagenta,
	termenv.ANSIBrightBlue,
	termenv.ANSIBrightYellow,
}

// Renderer implements ports.Telemetry for non-interactive environments.
// It writes chronological output where every line carries its module's name as a prefix.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output
	now    func() time.Time

	mu sync.Mutex
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithProfile forces a color profile instead of the environment's.
func WithProfile(profile termenv.Profile) Option {
	return func(r *Renderer) {
		r.output = termenv.NewOutput(r.stderr, termenv.WithProfile(profile))
	}
}

// WithClock replaces the time source used for durations.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// NewRenderer creates a new Renderer. Nil writers default to the process's stdout and stderr.
func NewRenderer(stdout, stderr io.Writer, opts ...Option) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	r := &Renderer{
		stdout: stdout,
		stderr: stderr,
		output: termenv.NewOutput(stderr, termenv.WithProfile(colorProfile())),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// colorProfile returns the color profile based on environment.
func colorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	// Use ANSI for basic color support in CI
	return termenv.ANSI
}

// Record prints a start line for name and returns a vertex whose output is prefixed with it.
func (r *Renderer) Record(ctx context.Context, name string) (context.Context, ports.Vertex) {
	v := &vertex{
		r:      r,
		name:   name,
		prefix: r.prefix(name),
		start:  r.now(),
	}
	v.stdout = &lineWriter{v: v, dst: r.stdout}
	v.stderr = &lineWriter{v: v, dst: r.stderr}

	r.mu.Lock()
	_, _ = fmt.Fprintf(r.stderr, "%s %s\n", v.prefix, r.output.String("Starting...").Faint())
	r.mu.Unlock()

	return ports.ContextWithVertex(ctx, v), v
}

// Close is a no-op; every vertex flushes its output when it completes.
func (r *Renderer) Close() error {
	return nil
}

func (r *Renderer) prefix(name string) string {
	color := prefixColors[xxhash.Sum64String(name)%uint64(len(prefixColors))]
	return r.output.String("[" + name + "]").Foreground(color).String()
}

type vertex struct {
	r      *Renderer
	name   string
	prefix string
	start  time.Time

	stdout *lineWriter
	stderr *lineWriter
	done   bool
}

func (v *vertex) Stdout() io.Writer { return v.stdout }
func (v *vertex) Stderr() io.Writer { return v.stderr }

// Log prints msg on stderr, colored by level.
func (v *vertex) Log(level domain.LogLevel, msg string) {
	v.r.mu.Lock()
	defer v.r.mu.Unlock()

	label := v.r.output.String(level.String())
	switch level {
	case domain.LogLevelError:
		label = label.Foreground(termenv.ANSIRed)
	case domain.LogLevelWarn:
		label = label.Foreground(termenv.ANSIYellow)
	default:
		label = label.Faint()
	}
	_, _ = fmt.Fprintf(v.r.stderr, "%s %s %s\n", v.prefix, label, msg)
}

// Complete flushes partial lines and prints the outcome. Calls after the first are ignored.
func (v *vertex) Complete(err error) {
	v.r.mu.Lock()
	defer v.r.mu.Unlock()

	if v.done {
		return
	}
	v.done = true

	v.stdout.flushLocked()
	v.stderr.flushLocked()

	duration := v.r.now().Sub(v.start).Round(time.Millisecond)
	if err != nil {
		symbol := v.r.output.String("✗").Foreground(termenv.ANSIRed).String()
		_, _ = fmt.Fprintf(v.r.stderr, "%s %s Failed after %v: %v\n", v.prefix, symbol, duration, err)
		return
	}
	symbol := v.r.output.String("✓").Foreground(termenv.ANSIGreen).String()
	_, _ = fmt.Fprintf(v.r.stderr, "%s %s Completed in %v\n", v.prefix, symbol, duration)
}

// lineWriter buffers partial lines and prints complete ones with the vertex prefix.
type lineWriter struct {
	v   *vertex
	dst io.Writer
	buf bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.v.r.mu.Lock()
	defer w.v.r.mu.Unlock()

	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		w.printLineLocked(w.buf.Next(i + 1))
	}
	return len(p), nil
}

// flushLocked prints any remaining partial line. Must be called with the renderer's mutex held.
func (w *lineWriter) flushLocked() {
	if w.buf.Len() > 0 {
		w.printLineLocked(w.buf.Bytes())
		w.buf.Reset()
	}
}

func (w *lineWriter) printLineLocked(line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w.dst, "%s %s\n", w.v.prefix, line)
}
