package ports

import (
	"context"

	"go.trai.ch/ftool/internal/core/domain"
)

// ModuleLoader discovers workspace members and writes their manifests back.
//
//go:generate go run go.uber.org/mock/mockgen -source=module_loader.go -destination=mocks/mock_module_loader.go -package=mocks
type ModuleLoader interface {
	// Load reads the root manifest under root and returns every member it declares.
	Load(ctx context.Context, root string) ([]domain.Module, error)
	// Save writes the module's manifest to its location.
	Save(ctx context.Context, module domain.Module) error
}
