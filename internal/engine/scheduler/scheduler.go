// Package scheduler drives module tasks through the dependency graph.
package scheduler

import (
	"context"
	"strings"
	"sync"

	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
	"go.trai.ch/zerr"
)

// TaskStatus represents the status of a module's task.
type TaskStatus string

const (
	// StatusPending indicates the module is waiting on its requirements.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the module's task is executing.
	StatusRunning TaskStatus = "Running"
	// StatusCompleted indicates the task finished successfully.
	StatusCompleted TaskStatus = "Completed"
	// StatusFailed indicates the task failed.
	StatusFailed TaskStatus = "Failed"
	// StatusStalled indicates the module never became ready, because a requirement
	// failed or because it sits on a requirement cycle.
	StatusStalled TaskStatus = "Stalled"
)

// InvokeFunc runs the task of one module and returns the module's name once it is done.
type InvokeFunc func(ctx context.Context, name domain.InternedString) (domain.InternedString, error)

// Scheduler launches every module exactly once, as soon as its last requirement completes.
type Scheduler struct {
	logger ports.Logger

	runMu sync.Mutex

	mu         sync.RWMutex
	taskStatus map[domain.InternedString]TaskStatus
}

// NewScheduler creates a new Scheduler.
func NewScheduler(logger ports.Logger) *Scheduler {
	return &Scheduler{
		logger:     logger,
		taskStatus: make(map[domain.InternedString]TaskStatus),
	}
}

// Run seeds execution with the graph's ready modules. Each completion releases the dependents
// whose last requirement it was, and those are launched through wait before the completing
// task itself returns. Run returns once every reachable module has been handled.
//
// The graph is consumed by the run. A failed task stops its own branch only; the errors of
// all failed branches are returned together. Modules that never become ready, such as the
// members of a requirement cycle, are reported as a warning and do not cause an error.
func (s *Scheduler) Run(ctx context.Context, graph *domain.DependencyGraph, invoke InvokeFunc, wait WaitStrategy) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.initTaskStatuses(graph)

	state := &runState{
		graph:  graph,
		invoke: invoke,
		wait:   wait,
		s:      s,
	}
	err := state.launch(ctx, graph.Ready)

	if stalled := graph.Stalled(); len(stalled) > 0 {
		for _, name := range stalled {
			s.updateStatus(name, StatusStalled)
		}
		msg := "modules never became ready: " + strings.Join(domain.Strings(stalled), ", ")
		if err != nil {
			s.logger.Info(msg)
		} else {
			s.logger.Warn(msg + " (requirement cycle?)")
		}
	}

	return err
}

// initTaskStatuses sets every module of the graph to Pending.
func (s *Scheduler) initTaskStatuses(graph *domain.DependencyGraph) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.taskStatus = make(map[domain.InternedString]TaskStatus, graph.Len())
	for _, m := range graph.Modules() {
		s.taskStatus[m.Name] = StatusPending
	}
}

func (s *Scheduler) updateStatus(name domain.InternedString, status TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStatus[name] = status
}

// Status returns the status of a module in the current or most recent run.
func (s *Scheduler) Status(name domain.InternedString) TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskStatus[name]
}

type runState struct {
	// mu guards graph.Resolve; completions of different modules may race.
	mu     sync.Mutex
	graph  *domain.DependencyGraph
	invoke InvokeFunc
	wait   WaitStrategy
	s      *Scheduler
}

// launch starts a task for every name and awaits them through the wait strategy.
func (r *runState) launch(ctx context.Context, names []domain.InternedString) error {
	tasks := make([]Task, 0, len(names))
	for _, name := range names {
		tasks = append(tasks, func(ctx context.Context) error {
			return r.run(ctx, name)
		})
	}
	return r.wait(ctx, tasks)
}

// run invokes one module, then launches the dependents it released.
func (r *runState) run(ctx context.Context, name domain.InternedString) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.updateStatus(name, StatusRunning)
	r.s.logger.Debug("starting " + name.String())

	resolved, err := r.invoke(ctx, name)
	if err != nil {
		r.s.updateStatus(name, StatusFailed)
		return zerr.With(zerr.Wrap(err, "task execution failed"), "module", name.String())
	}
	if resolved != name {
		r.s.updateStatus(name, StatusFailed)
		return zerr.With(
			zerr.With(zerr.Wrap(domain.ErrInconsistentGraph, "invoker resolved with another module"), "module", name.String()),
			"resolved", resolved.String(),
		)
	}
	r.s.updateStatus(name, StatusCompleted)

	r.mu.Lock()
	newlyReady, err := r.graph.Resolve(resolved)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	if len(newlyReady) == 0 {
		return nil
	}
	r.s.logger.Debug(name.String() + " released " + strings.Join(domain.Strings(newlyReady), ", "))
	return r.launch(ctx, newlyReady)
}
