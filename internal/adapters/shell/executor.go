// Package shell runs module tasks as external processes.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec, optionally attached to a PTY.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Execute runs argv in dir and waits for it to exit.
func (e *Executor) Execute(ctx context.Context, dir string, argv []string, stdout, stderr io.Writer) error {
	if len(argv) == 0 {
		return domain.ErrNoCommand
	}

	stdout, stderr, flush := e.outputs(ctx, stdout, stderr)
	defer flush()

	name := argv[0]
	env := os.Environ()

	// Resolve the executable path
	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, argv[1:]...) //nolint:gosec // user provided command
	// Preserve the name as invoked rather than the resolved path.
	cmd.Args[0] = name
	cmd.Dir = dir
	cmd.Env = env

	var err error
	if ports.PTYFromContext(ctx) {
		err = runPTY(cmd, stdout)
	} else {
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		err = cmd.Run()
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, "command failed"), "exit_code", ExitCode(err))
	}
	return nil
}

// outputs picks the writers for a command: the given ones, the vertex carried by ctx,
// or line-buffered logger output. The returned func flushes buffered logger lines.
func (e *Executor) outputs(ctx context.Context, stdout, stderr io.Writer) (io.Writer, io.Writer, func()) {
	var closers []io.Closer
	v, hasVertex := ports.VertexFromContext(ctx)

	if stdout == nil {
		if hasVertex {
			stdout = v.Stdout()
		} else {
			w := &logWriter{logger: e.logger, level: "info"}
			closers = append(closers, w)
			stdout = w
		}
	}
	if stderr == nil {
		if hasVertex {
			stderr = v.Stderr()
		} else {
			w := &logWriter{logger: e.logger, level: "error"}
			closers = append(closers, w)
			stderr = w
		}
	}

	return stdout, stderr, func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
}

// runPTY starts cmd attached to a pseudo-terminal and copies its combined output to w.
func runPTY(cmd *exec.Cmd, w io.Writer) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return zerr.Wrap(err, "failed to start pty")
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// The copy ends with EIO once the child side of the terminal is gone.
		_, _ = io.Copy(w, ptmx)
	}()

	err = cmd.Wait()
	<-ioDone
	_ = ptmx.Close()
	return err
}

// ExitCode returns the exit code carried by err, or -1 when the process did not exit normally.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

type logWriter struct {
	logger ports.Logger
	level  string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	// PTYs may introduce \r. Remove it.
	msg := strings.TrimSuffix(string(line), "\r")

	if w.level == "info" {
		w.logger.Info(msg)
	} else {
		w.logger.Error(zerr.New(msg))
	}
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
