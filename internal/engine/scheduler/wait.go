package scheduler

import (
	"context"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/zerr"
)

// Task is one deferred unit of work handed to a WaitStrategy.
type Task func(ctx context.Context) error

// WaitStrategy decides how a batch of tasks is started and awaited.
// It must run every task and return only after all of them have returned.
type WaitStrategy func(ctx context.Context, tasks []Task) error

// Concurrent starts every task at once and waits for all of them.
// Every error is kept.
func Concurrent(ctx context.Context, tasks []Task) error {
	var g multierror.Group
	for _, task := range tasks {
		g.Go(func() error {
			return task(ctx)
		})
	}
	return g.Wait().ErrorOrNil()
}

// Serial runs the tasks one after another in list order.
// A failing task does not stop the ones after it.
func Serial(ctx context.Context, tasks []Task) error {
	var errs *multierror.Error
	for _, task := range tasks {
		if err := task(ctx); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// ParseStrategy maps a strategy name to its implementation. An empty name selects Concurrent.
func ParseStrategy(name string) (WaitStrategy, error) {
	switch strings.ToLower(name) {
	case "", domain.StrategyConcurrent, "parallel":
		return Concurrent, nil
	case domain.StrategySerial:
		return Serial, nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownStrategy, "expected concurrent or serial"), "strategy", name)
	}
}
