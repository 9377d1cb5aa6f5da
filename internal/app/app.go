// Package app implements the application layer for ftool.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"go.trai.ch/ftool/internal/adapters/shell"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
	"go.trai.ch/ftool/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	modules      ports.ModuleLoader
	executor     ports.Executor
	files        ports.FileLister
	scheduler    *scheduler.Scheduler
	logger       ports.Logger

	fs         afero.Fs
	stdout     io.Writer
	stderr     io.Writer
	verbosity  func(bool)
	teaOptions []tea.ProgramOption
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	modules ports.ModuleLoader,
	executor ports.Executor,
	files ports.FileLister,
	sched *scheduler.Scheduler,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		modules:      modules,
		executor:     executor,
		files:        files,
		scheduler:    sched,
		logger:       log,
		fs:           afero.NewOsFs(),
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// WithOutput redirects the report streams of the App.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithFs replaces the filesystem used to read counted files.
func (a *App) WithFs(fs afero.Fs) *App {
	a.fs = fs
	return a
}

// WithVerbosity installs the hook SetVerbose forwards to.
func (a *App) WithVerbosity(set func(bool)) *App {
	a.verbosity = set
	return a
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// SetVerbose toggles debug logging.
func (a *App) SetVerbose(verbose bool) {
	if a.verbosity != nil {
		a.verbosity(verbose)
	}
}

// RunOptions configures a workspace run.
type RunOptions struct {
	// Root is the workspace directory holding the root package.json.
	Root string
	// Args is the command run in every module.
	Args []string
	// Strategy overrides the configured strategy when set.
	Strategy string
	// Unordered launches every module at once, ignoring the dependency graph.
	Unordered bool
	// KeepGoing logs task failures and keeps releasing dependents.
	KeepGoing bool
	// TUI shows the interactive view instead of prefixed output.
	TUI bool
	// PTY attaches tasks to a pseudo-terminal.
	PTY bool
	// Summary prints a per-module timing table after the run.
	Summary bool
	// Quiet discards task output. Failures still carry their stderr tail.
	Quiet bool
}

// RunWorkspace runs opts.Args in every module, each one only after the modules it requires.
// Graph errors are returned before any task starts.
func (a *App) RunWorkspace(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return domain.ErrNoCommand
	}

	cfg, err := a.configLoader.Load(opts.Root)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	opts.KeepGoing = opts.KeepGoing || cfg.KeepGoing
	strategy := cfg.Strategy
	if opts.Strategy != "" {
		strategy = opts.Strategy
	}
	if opts.Unordered || strategy == domain.StrategyUnordered {
		return a.RunUnordered(ctx, opts)
	}

	wait, err := scheduler.ParseStrategy(strategy)
	if err != nil {
		return err
	}

	modules, err := a.modules.Load(ctx, opts.Root)
	if err != nil {
		return zerr.Wrap(err, "failed to load workspace")
	}

	graph, err := domain.BuildGraph(modules)
	if err != nil {
		return zerr.Wrap(err, "failed to build dependency graph")
	}

	return a.execute(ctx, opts, modules, func(ctx context.Context, invoker ports.Invoker) error {
		invoke := func(ctx context.Context, name domain.InternedString) (domain.InternedString, error) {
			module, ok := graph.Module(name)
			if !ok {
				return domain.InternedString{}, zerr.With(zerr.Wrap(domain.ErrInconsistentGraph, "unknown module"), "module", name.String())
			}
			return invoker.Invoke(ctx, module, opts.Args)
		}
		return a.scheduler.Run(ctx, graph, invoke, wait)
	})
}

// RunUnordered runs opts.Args in every module at once, ignoring the dependency graph.
func (a *App) RunUnordered(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return domain.ErrNoCommand
	}

	modules, err := a.modules.Load(ctx, opts.Root)
	if err != nil {
		return zerr.Wrap(err, "failed to load workspace")
	}

	return a.execute(ctx, opts, modules, func(ctx context.Context, invoker ports.Invoker) error {
		tasks := make([]scheduler.Task, 0, len(modules))
		for _, module := range modules {
			tasks = append(tasks, func(ctx context.Context) error {
				_, err := invoker.Invoke(ctx, module, opts.Args)
				return err
			})
		}
		// A failure leaves the other modules running; every error is returned.
		return scheduler.Concurrent(ctx, tasks)
	})
}

// execute runs body with an invoker reporting to the telemetry chosen by opts.
func (a *App) execute(
	ctx context.Context,
	opts RunOptions,
	modules []domain.Module,
	body func(context.Context, ports.Invoker) error,
) error {
	if opts.PTY {
		ctx = ports.ContextWithPTY(ctx)
	}

	sess := a.newSession(opts, modules)
	invoker := shell.NewInvoker(a.executor, sess.telemetry, a.logger, shell.WithKeepGoing(opts.KeepGoing))

	var err error
	if sess.program == nil {
		err = body(ctx, invoker)
		err = errors.Join(err, sess.telemetry.Close())
	} else {
		err = a.withProgram(ctx, sess, func(ctx context.Context) error {
			return body(ctx, invoker)
		})
	}

	if sess.summary != nil {
		if reportErr := sess.summary.Report(a.stdout); reportErr != nil {
			a.logger.Error(reportErr)
		}
	}
	if err != nil {
		return zerr.Wrap(err, "workspace run failed")
	}
	return nil
}

// withProgram runs the interactive view next to run. Closing the telemetry ends the view;
// quitting the view cancels the run.
func (a *App) withProgram(ctx context.Context, sess *session, run func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		defer cancel()
		if _, err := sess.program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return zerr.Wrap(err, "interactive view failed")
		}
		return nil
	})
	g.Go(func() error {
		err := run(ctx)
		return errors.Join(err, sess.telemetry.Close())
	})
	return g.Wait()
}

// ListModules returns the workspace members in registry order.
func (a *App) ListModules(ctx context.Context, root string) ([]domain.Module, error) {
	modules, err := a.modules.Load(ctx, root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load workspace")
	}
	return modules, nil
}

// CheckWorkspace verifies that every requirement names a member and that no requirement cycle exists.
func (a *App) CheckWorkspace(ctx context.Context, root string) error {
	modules, err := a.ListModules(ctx, root)
	if err != nil {
		return err
	}
	if _, err := domain.BuildGraph(modules); err != nil {
		return err
	}
	if err := domain.FindCycle(modules); err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("workspace is consistent: %d modules", len(modules)))
	return nil
}
