// Package config provides the configuration loader for ftool.
package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// FileConfigLoader implements ports.ConfigLoader using a YAML file.
type FileConfigLoader struct {
	// Filename is resolved against the workspace root unless it is absolute.
	Filename string

	fs     afero.Fs
	logger ports.Logger
}

// NewLoader creates a loader reading ftool.yaml from the host filesystem.
func NewLoader(logger ports.Logger) *FileConfigLoader {
	return NewLoaderFs(afero.NewOsFs(), logger)
}

// NewLoaderFs creates a loader over the given filesystem.
func NewLoaderFs(fsys afero.Fs, logger ports.Logger) *FileConfigLoader {
	return &FileConfigLoader{Filename: Filename, fs: fsys, logger: logger}
}

// Load reads the configuration of the workspace at root. A missing file yields the defaults.
func (l *FileConfigLoader) Load(root string) (*domain.Config, error) {
	path := l.Filename
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	data, err := afero.ReadFile(l.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("no configuration at " + path + ", using defaults")
		return domain.DefaultConfig(), nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	l.logger.Debug("loaded configuration from " + path)
	return cfg, nil
}

// Parse decodes a configuration document and merges it over the defaults.
func Parse(data []byte) (*domain.Config, error) {
	var file Configfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}

	cfg := domain.DefaultConfig()

	if file.Strategy != "" {
		strategy := strings.ToLower(file.Strategy)
		switch strategy {
		case domain.StrategyConcurrent, domain.StrategySerial, domain.StrategyUnordered:
			cfg.Strategy = strategy
		default:
			return nil, zerr.With(zerr.Wrap(domain.ErrUnknownStrategy, "invalid strategy in config"), "strategy", file.Strategy)
		}
	}

	if file.KeepGoing != nil {
		cfg.KeepGoing = *file.KeepGoing
	}

	if pm := file.Format.PackageManager; pm != "" {
		if !slices.Contains(domain.PackageManagers, pm) {
			return nil, zerr.With(zerr.Wrap(domain.ErrUnknownPackageManager, "invalid package manager in config"), "package_manager", pm)
		}
		cfg.Format.PackageManager = pm
	}

	if file.Format.Exclude != nil {
		cfg.Format.Exclude = file.Format.Exclude
	}

	return cfg, nil
}
