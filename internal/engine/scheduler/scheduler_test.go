package scheduler_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports/mocks"
	"go.trai.ch/ftool/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

func mod(name string, requires ...string) domain.Module {
	m := domain.NewModule(name, "packages/"+name, "1.0.0")
	for _, r := range requires {
		m.AddRelation(domain.DependencyDirect, domain.NewInternedString(r))
	}
	return m
}

func buildGraph(t *testing.T, modules ...domain.Module) *domain.DependencyGraph {
	t.Helper()
	g, err := domain.BuildGraph(modules)
	require.NoError(t, err)
	return g
}

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	return log
}

// recorder collects invocation order from concurrently running tasks.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) invoke(_ context.Context, name domain.InternedString) (domain.InternedString, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name.String())
	return name, nil
}

func (r *recorder) invoked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestScheduler_Run_Diamond(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// B and C require A, D requires B and C.
		g := buildGraph(t, mod("A"), mod("B", "A"), mod("C", "A"), mod("D", "B", "C"))
		s := scheduler.NewScheduler(quietLogger(ctrl))

		started := map[string]chan struct{}{}
		proceed := map[string]chan struct{}{}
		for _, n := range []string{"A", "B", "C", "D"} {
			started[n] = make(chan struct{})
			proceed[n] = make(chan struct{})
		}

		// Closing a started channel twice panics, so a second launch fails the test.
		invoke := func(_ context.Context, name domain.InternedString) (domain.InternedString, error) {
			close(started[name.String()])
			<-proceed[name.String()]
			return name, nil
		}

		errCh := make(chan error)
		go func() {
			errCh <- s.Run(context.Background(), g, invoke, scheduler.Concurrent)
		}()

		synctest.Wait()
		assert.True(t, isClosed(started["A"]), "A should start first")
		assert.False(t, isClosed(started["B"]))
		assert.False(t, isClosed(started["C"]))
		assert.Equal(t, scheduler.StatusRunning, s.StatusByName()["A"])
		assert.Equal(t, scheduler.StatusPending, s.StatusByName()["D"])

		close(proceed["A"])
		synctest.Wait()
		assert.True(t, isClosed(started["B"]), "B should start after A")
		assert.True(t, isClosed(started["C"]), "C should start after A")
		assert.False(t, isClosed(started["D"]))

		close(proceed["B"])
		synctest.Wait()
		assert.False(t, isClosed(started["D"]), "D must wait for C")

		close(proceed["C"])
		synctest.Wait()
		assert.True(t, isClosed(started["D"]), "D should start after B and C")

		close(proceed["D"])
		require.NoError(t, <-errCh)

		for _, n := range []string{"A", "B", "C", "D"} {
			assert.Equal(t, scheduler.StatusCompleted, s.StatusByName()[n], n)
		}
	})
}

func TestScheduler_Run_ChainRunsLeavesFirst(t *testing.T) {
	for name, wait := range map[string]scheduler.WaitStrategy{
		"concurrent": scheduler.Concurrent,
		"serial":     scheduler.Serial,
	} {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// A requires B, B requires C.
			g := buildGraph(t, mod("A", "B"), mod("B", "C"), mod("C"))
			rec := &recorder{}

			err := scheduler.NewScheduler(quietLogger(ctrl)).Run(context.Background(), g, rec.invoke, wait)
			require.NoError(t, err)
			assert.Equal(t, []string{"C", "B", "A"}, rec.invoked())
		})
	}
}

func TestScheduler_Run_FanOut(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		modules := []domain.Module{mod("a"), mod("b"), mod("c"), mod("d"), mod("e")}
		g := buildGraph(t, modules...)

		release := make(chan struct{})
		var mu sync.Mutex
		running := 0
		invoke := func(_ context.Context, name domain.InternedString) (domain.InternedString, error) {
			mu.Lock()
			running++
			mu.Unlock()
			<-release
			return name, nil
		}

		errCh := make(chan error)
		go func() {
			errCh <- scheduler.NewScheduler(quietLogger(ctrl)).Run(context.Background(), g, invoke, scheduler.Concurrent)
		}()

		synctest.Wait()
		mu.Lock()
		assert.Equal(t, len(modules), running, "independent modules all launch at once")
		mu.Unlock()

		close(release)
		require.NoError(t, <-errCh)
	})
}

func TestScheduler_Run_SerialKeepsSiblingOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	g := buildGraph(t, mod("root"), mod("x", "root"), mod("y", "root"), mod("z", "root"))
	rec := &recorder{}

	err := scheduler.NewScheduler(quietLogger(ctrl)).Run(context.Background(), g, rec.invoke, scheduler.Serial)
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "x", "y", "z"}, rec.invoked())
}

func TestScheduler_Run_StrategiesInvokeSameSet(t *testing.T) {
	modules := func() []domain.Module {
		return []domain.Module{
			mod("core"),
			mod("utils", "core"),
			mod("ui", "core", "utils"),
			mod("api", "utils"),
			mod("app", "ui", "api"),
			mod("docs"),
		}
	}

	invokedWith := func(wait scheduler.WaitStrategy) []string {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		rec := &recorder{}
		g := buildGraph(t, modules()...)
		require.NoError(t, scheduler.NewScheduler(quietLogger(ctrl)).Run(context.Background(), g, rec.invoke, wait))

		order := rec.invoked()
		pos := make(map[string]int, len(order))
		for i, n := range order {
			pos[n] = i
		}
		for _, m := range modules() {
			for _, r := range m.Requires {
				assert.Less(t, pos[r.String()], pos[m.Name.String()], "%s must run after %s", m.Name, r)
			}
		}
		slices.Sort(order)
		return order
	}

	concurrent := invokedWith(scheduler.Concurrent)
	serial := invokedWith(scheduler.Serial)
	assert.Equal(t, []string{"api", "app", "core", "docs", "ui", "utils"}, concurrent)
	assert.Equal(t, concurrent, serial)
}

func TestScheduler_Run_CycleStallsSilently(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Warn("modules never became ready: X, Y (requirement cycle?)").Times(1)

	g := buildGraph(t, mod("A"), mod("X", "Y"), mod("Y", "X"))
	rec := &recorder{}
	s := scheduler.NewScheduler(log)

	err := s.Run(context.Background(), g, rec.invoke, scheduler.Concurrent)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, rec.invoked())
	assert.Equal(t, scheduler.StatusStalled, s.StatusByName()["X"])
	assert.Equal(t, scheduler.StatusStalled, s.StatusByName()["Y"])
}

func TestScheduler_Run_FailureStopsOnlyItsBranch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info("modules never became ready: B").Times(1)

	boom := errors.New("exit status 1")
	g := buildGraph(t, mod("A"), mod("B", "A"), mod("S"), mod("T", "S"))
	s := scheduler.NewScheduler(log)

	var mu sync.Mutex
	var invoked []string
	invoke := func(_ context.Context, name domain.InternedString) (domain.InternedString, error) {
		mu.Lock()
		invoked = append(invoked, name.String())
		mu.Unlock()
		if name.String() == "A" {
			return domain.InternedString{}, boom
		}
		return name, nil
	}

	err := s.Run(context.Background(), g, invoke, scheduler.Concurrent)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "task execution failed")

	slices.Sort(invoked)
	assert.Equal(t, []string{"A", "S", "T"}, invoked)

	statuses := s.StatusByName()
	assert.Equal(t, scheduler.StatusFailed, statuses["A"])
	assert.Equal(t, scheduler.StatusStalled, statuses["B"])
	assert.Equal(t, scheduler.StatusCompleted, statuses["T"])
}

func TestScheduler_Run_CollectsEveryBranchError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	g := buildGraph(t, mod("a"), mod("b"), mod("c"))
	errA := errors.New("a broke")
	errC := errors.New("c broke")
	invoke := func(_ context.Context, name domain.InternedString) (domain.InternedString, error) {
		switch name.String() {
		case "a":
			return domain.InternedString{}, errA
		case "c":
			return domain.InternedString{}, errC
		}
		return name, nil
	}

	for _, wait := range []scheduler.WaitStrategy{scheduler.Concurrent, scheduler.Serial} {
		err := scheduler.NewScheduler(quietLogger(ctrl)).Run(context.Background(), buildGraph(t, g.Modules()...), invoke, wait)
		assert.ErrorIs(t, err, errA)
		assert.ErrorIs(t, err, errC)
	}
}

func TestScheduler_Run_WithInvoker(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	modules := []domain.Module{mod("lib"), mod("app", "lib")}
	g := buildGraph(t, modules...)
	invoker := mocks.NewMockInvoker(ctrl)
	args := []string{"yarn", "build"}

	gomock.InOrder(
		invoker.EXPECT().Invoke(gomock.Any(), modules[0], args).Return(modules[0].Name, nil),
		invoker.EXPECT().Invoke(gomock.Any(), modules[1], args).Return(modules[1].Name, nil),
	)

	invoke := func(ctx context.Context, name domain.InternedString) (domain.InternedString, error) {
		m, _ := g.Module(name)
		return invoker.Invoke(ctx, m, args)
	}

	require.NoError(t, scheduler.NewScheduler(quietLogger(ctrl)).Run(context.Background(), g, invoke, scheduler.Concurrent))
}

func TestScheduler_Run_MismatchedResolution(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	g := buildGraph(t, mod("A"), mod("B", "A"))
	invoke := func(_ context.Context, _ domain.InternedString) (domain.InternedString, error) {
		return domain.NewInternedString("someone-else"), nil
	}

	err := scheduler.NewScheduler(quietLogger(ctrl)).Run(context.Background(), g, invoke, scheduler.Concurrent)
	assert.ErrorIs(t, err, domain.ErrInconsistentGraph)
}

func TestScheduler_Run_CanceledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := buildGraph(t, mod("A"), mod("B", "A"))
	rec := &recorder{}

	err := scheduler.NewScheduler(quietLogger(ctrl)).Run(ctx, g, rec.invoke, scheduler.Concurrent)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.invoked())
}
