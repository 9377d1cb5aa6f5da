package ports

import "go.trai.ch/ftool/internal/core/domain"

// ConfigLoader reads workspace settings.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load returns the settings for the workspace at root, or defaults when none are configured.
	Load(root string) (*domain.Config, error)
}
