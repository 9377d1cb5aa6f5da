package ports

import (
	"context"

	"go.trai.ch/ftool/internal/core/domain"
)

// Invoker runs the workspace task for a single module.
//
//go:generate go run go.uber.org/mock/mockgen -source=invoker.go -destination=mocks/mock_invoker.go -package=mocks
type Invoker interface {
	// Invoke runs args in the module's location and returns the module's own name.
	// The name is the correlation key the scheduler uses to release dependents.
	Invoke(ctx context.Context, module domain.Module, args []string) (domain.InternedString, error)
}
