package app

import (
	"context"
	"fmt"

	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/zerr"
)

// ChangeInternalDeps rewrites every dependency on another workspace member.
// With setToVersion the range becomes the member's current version, otherwise "workspace:*".
// Only manifests that changed are saved.
func (a *App) ChangeInternalDeps(ctx context.Context, root string, setToVersion bool) error {
	modules, err := a.ListModules(ctx, root)
	if err != nil {
		return err
	}

	versions := make(map[string]string, len(modules))
	for _, m := range modules {
		versions[m.Name.String()] = m.Version
	}

	changed := 0
	for _, m := range modules {
		rewritten, err := rewriteInternalDeps(m.Manifest, versions, setToVersion)
		if err != nil {
			return zerr.With(err, "module", m.Name.String())
		}
		if rewritten == 0 {
			continue
		}
		if err := a.modules.Save(ctx, m); err != nil {
			return err
		}
		changed++
		a.logger.Debug(fmt.Sprintf("%s: rewrote %d internal dependencies", m.Name, rewritten))
	}

	a.logger.Info(fmt.Sprintf("updated %d of %d manifests", changed, len(modules)))
	return nil
}

func rewriteInternalDeps(manifest *domain.Manifest, versions map[string]string, setToVersion bool) (int, error) {
	if manifest == nil {
		return 0, zerr.Wrap(domain.ErrInvalidManifest, "module has no manifest")
	}

	rewritten := 0
	for _, kind := range domain.DependencyKinds {
		key := kind.ManifestKey()
		section, _, err := manifest.StringSection(key)
		if err != nil {
			return 0, err
		}

		for _, dep := range section {
			version, internal := versions[dep.Key]
			if !internal {
				continue
			}
			want := domain.WorkspaceAnyVersion
			if setToVersion {
				want = version
			}
			if dep.Value == want {
				continue
			}
			if err := manifest.SetString(want, key, dep.Key); err != nil {
				return 0, err
			}
			rewritten++
		}
	}
	return rewritten, nil
}
