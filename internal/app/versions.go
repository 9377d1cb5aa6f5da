package app

import (
	"context"
	"fmt"

	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/zerr"
)

// BumpVersions applies bump to the version of every module and saves the manifests.
// No manifest is written unless every module's version could be bumped.
func (a *App) BumpVersions(ctx context.Context, root, bump string) error {
	if !domain.IsValidVersionBump(bump) {
		return zerr.With(zerr.Wrap(domain.ErrInvalidVersionBump, "expected major, minor, patch or N[.N[.N]]"), "bump", bump)
	}

	modules, err := a.ListModules(ctx, root)
	if err != nil {
		return err
	}

	next := make([]string, len(modules))
	for i, m := range modules {
		if m.Manifest == nil {
			return zerr.With(zerr.Wrap(domain.ErrInvalidManifest, "module has no manifest"), "module", m.Name.String())
		}
		v, err := domain.BumpVersion(m.Version, bump)
		if err != nil {
			return zerr.With(err, "module", m.Name.String())
		}
		next[i] = v
	}

	for i, m := range modules {
		if err := m.Manifest.SetString(next[i], "version"); err != nil {
			return zerr.With(err, "module", m.Name.String())
		}
		if err := a.modules.Save(ctx, m); err != nil {
			return err
		}
		a.logger.Info(fmt.Sprintf("%s: %s -> %s", m.Name, m.Version, next[i]))
	}
	return nil
}
