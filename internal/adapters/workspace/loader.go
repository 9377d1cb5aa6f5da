// Package workspace discovers the members of a package.json workspace.
package workspace

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
	"go.trai.ch/zerr"
)

// ManifestName is the file describing a package.
const ManifestName = "package.json"

var _ ports.ModuleLoader = (*Loader)(nil)

// Loader implements ports.ModuleLoader for package.json workspaces.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the root manifest and returns every member matched by its workspaces patterns,
// in pattern order. A directory matched by several patterns is loaded once.
func (l *Loader) Load(ctx context.Context, root string) ([]domain.Module, error) {
	fsys := FsFactory()

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve workspace root")
	}

	rootManifest, err := readManifest(fsys, filepath.Join(root, ManifestName))
	if err != nil {
		return nil, err
	}
	patterns, ok, err := rootManifest.GetStrings("workspaces")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidManifest, "workspaces field must be an array of strings"), "root", root)
	}
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrNoWorkspaces, "root manifest declares no workspaces"), "root", root)
	}

	dirs, err := l.memberDirs(fsys, root, patterns)
	if err != nil {
		return nil, err
	}

	modules := make([]domain.Module, 0, len(dirs))
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := readModule(fsys, filepath.Join(root, filepath.FromSlash(dir)))
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}

	l.logger.Debug("loaded " + pluralModules(len(modules)) + " from " + root)
	return modules, nil
}

// memberDirs expands the workspace patterns to directories holding a manifest.
func (l *Loader) memberDirs(fsys afero.Fs, root string, patterns []string) ([]string, error) {
	rooted := afero.NewIOFS(afero.NewBasePathFs(fsys, root))

	seen := make(map[string]struct{})
	var dirs []string
	for _, pattern := range patterns {
		pattern = path.Clean(strings.TrimPrefix(filepath.ToSlash(pattern), "./"))
		if !doublestar.ValidatePattern(pattern) {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidManifest, "invalid workspace pattern"), "pattern", pattern)
		}

		matches, err := doublestar.Glob(rooted, pattern)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to expand workspace pattern"), "pattern", pattern)
		}
		if len(matches) == 0 {
			l.logger.Debug("workspace pattern " + pattern + " matched nothing")
		}

		for _, match := range matches {
			if _, dup := seen[match]; dup {
				continue
			}
			info, err := fs.Stat(rooted, match)
			if err != nil || !info.IsDir() {
				continue
			}
			if _, err := fs.Stat(rooted, path.Join(match, ManifestName)); err != nil {
				continue
			}
			seen[match] = struct{}{}
			dirs = append(dirs, match)
		}
	}
	return dirs, nil
}

// readModule parses the manifest in dir into a module with its workspace relations.
func readModule(fsys afero.Fs, dir string) (domain.Module, error) {
	manifestPath := filepath.Join(dir, ManifestName)
	manifest, err := readManifest(fsys, manifestPath)
	if err != nil {
		return domain.Module{}, err
	}

	name, ok, err := manifest.GetString("name")
	if err != nil || !ok || name == "" {
		return domain.Module{}, zerr.With(zerr.Wrap(domain.ErrInvalidManifest, "name field must be a string"), "path", manifestPath)
	}
	// A version that is missing or not a string falls back to the default.
	version, _, err := manifest.GetString("version")
	if err != nil {
		version = ""
	}

	m := domain.NewModule(name, dir, version)
	m.Manifest = manifest

	for _, kind := range domain.DependencyKinds {
		section, ok, err := manifest.StringSection(kind.ManifestKey())
		if err != nil {
			return domain.Module{}, zerr.With(err, "path", manifestPath)
		}
		if !ok {
			continue
		}
		for _, dep := range section {
			if strings.HasPrefix(dep.Value, domain.WorkspaceProtocol) {
				m.AddRelation(kind, domain.NewInternedString(dep.Key))
			}
		}
	}
	return m, nil
}

func readManifest(fsys afero.Fs, manifestPath string) (*domain.Manifest, error) {
	data, err := afero.ReadFile(fsys, manifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(err, "manifest not found"), "path", manifestPath)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", manifestPath)
	}
	manifest, err := domain.ParseManifest(data)
	if err != nil {
		return nil, zerr.With(err, "path", manifestPath)
	}
	return manifest, nil
}

// Save writes the module's manifest back to its directory.
func (l *Loader) Save(ctx context.Context, module domain.Module) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if module.Manifest == nil {
		return zerr.With(zerr.Wrap(domain.ErrInvalidManifest, "module has no manifest"), "module", module.Name.String())
	}

	data := module.Manifest.Encode()
	manifestPath := filepath.Join(module.Location, ManifestName)
	if err := afero.WriteFile(FsFactory(), manifestPath, data, 0o644); err != nil { //nolint:gosec // manifests are world readable
		return zerr.With(zerr.Wrap(err, "failed to write manifest"), "path", manifestPath)
	}
	l.logger.Debug("wrote " + manifestPath)
	return nil
}

func pluralModules(n int) string {
	if n == 1 {
		return "1 module"
	}
	return strconv.Itoa(n) + " modules"
}
