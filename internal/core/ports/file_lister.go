package ports

import (
	"context"

	"go.trai.ch/ftool/internal/core/domain"
)

// FileLister lists files known to version control.
//
//go:generate go run go.uber.org/mock/mockgen -source=file_lister.go -destination=mocks/mock_file_lister.go -package=mocks
type FileLister interface {
	Files(ctx context.Context, opts domain.ListOptions) ([]string, error)
}
