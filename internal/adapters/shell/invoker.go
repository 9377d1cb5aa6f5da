package shell

import (
	"context"
	"io"
	"strings"
	"sync"

	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
)

// stderrTailLines is how many trailing stderr lines a TaskFailure keeps.
const stderrTailLines = 20

var _ ports.Invoker = (*Invoker)(nil)

// Invoker runs a module's task through an Executor and records it as a telemetry vertex.
type Invoker struct {
	executor  ports.Executor
	telemetry ports.Telemetry
	logger    ports.Logger
	keepGoing bool
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithKeepGoing makes failed tasks resolve with the module name after being logged,
// so their dependents still run.
func WithKeepGoing(keepGoing bool) InvokerOption {
	return func(i *Invoker) {
		i.keepGoing = keepGoing
	}
}

// NewInvoker creates a new Invoker.
func NewInvoker(executor ports.Executor, telemetry ports.Telemetry, logger ports.Logger, opts ...InvokerOption) *Invoker {
	i := &Invoker{
		executor:  executor,
		telemetry: telemetry,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Invoke runs args in the module's location. It returns the module's name once the command
// exits successfully, or a *domain.TaskFailure otherwise. Under a pseudo-terminal the
// failure's tail is taken from the combined output.
func (i *Invoker) Invoke(ctx context.Context, module domain.Module, args []string) (domain.InternedString, error) {
	if len(args) == 0 {
		return domain.InternedString{}, domain.ErrNoCommand
	}

	attached := ports.PTYFromContext(ctx)
	ctx, vertex := i.telemetry.Record(ctx, module.Name.String())
	tail := newTailWriter(stderrTailLines)

	stdout, stderr := vertex.Stdout(), io.MultiWriter(vertex.Stderr(), tail)
	if attached {
		// A terminal merges both streams into stdout.
		stdout = io.MultiWriter(stdout, tail)
	}

	err := i.executor.Execute(ctx, module.Location, args, stdout, stderr)
	vertex.Complete(err)
	if err == nil {
		return module.Name, nil
	}

	failure := &domain.TaskFailure{
		Module:     module.Name.String(),
		ExitCode:   ExitCode(err),
		StderrTail: tail.String(),
		Err:        err,
	}
	if i.keepGoing {
		i.logger.Error(failure)
		return module.Name, nil
	}
	return domain.InternedString{}, failure
}

// tailWriter keeps the last n complete lines written to it, plus any unterminated remainder.
type tailWriter struct {
	mu      sync.Mutex
	n       int
	lines   []string
	partial strings.Builder
}

func newTailWriter(n int) *tailWriter {
	return &tailWriter{n: n}
}

func (t *tailWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rest := string(p)
	for {
		idx := strings.IndexByte(rest, '\n')
		if idx < 0 {
			t.partial.WriteString(rest)
			break
		}
		t.partial.WriteString(rest[:idx])
		t.push(strings.TrimSuffix(t.partial.String(), "\r"))
		t.partial.Reset()
		rest = rest[idx+1:]
	}
	return len(p), nil
}

func (t *tailWriter) push(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
}

func (t *tailWriter) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := t.lines
	if t.partial.Len() > 0 {
		lines = append(lines[:len(lines):len(lines)], t.partial.String())
		if len(lines) > t.n {
			lines = lines[len(lines)-t.n:]
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
