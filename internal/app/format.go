package app

import (
	"context"
	"fmt"
	"regexp"
	"slices"

	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var (
	prettierPattern = regexp.MustCompile(`(?i)\.(ts|tsx|js|jsx|md|html|css|json|ejs|mjs|cjs|yml|yaml)$`)
	clangPattern    = regexp.MustCompile(`(?i)\.(cpp|c|cc|ino|h|hh|hpp)$`)
)

// formatGroups decides which formatter handles a file. The first match wins.
var formatGroups = []domain.FileGroup{
	{
		Name: "prettier",
		Match: func(name string) bool {
			return name == ".prettierrc" || prettierPattern.MatchString(name)
		},
	},
	{Name: "clang", Match: domain.MatchPattern(clangPattern)},
}

// Format runs prettier (through the package manager) and clang-format over the files changed
// against HEAD. An empty packageManager selects the configured one.
// A failing batch is logged and does not stop the others.
func (a *App) Format(ctx context.Context, root, packageManager string) error {
	cfg, err := a.configLoader.Load(root)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	if packageManager == "" {
		packageManager = cfg.Format.PackageManager
	}
	if !slices.Contains(domain.PackageManagers, packageManager) {
		return zerr.With(zerr.Wrap(domain.ErrUnknownPackageManager, "expected npm, yarn, pnpm or bun"), "package_manager", packageManager)
	}

	files, err := a.files.Files(ctx, domain.ListOptions{Mode: domain.ListChanged, Dir: root})
	if err != nil {
		return err
	}
	grouped := domain.GroupFiles(files, formatGroups)

	commands := map[string][]string{
		"prettier": {packageManager, "run", "prettier", "--write"},
		"clang":    {"clang-format", "-i"},
	}

	var g errgroup.Group
	for name, group := range grouped.Groups {
		g.Go(func() error {
			a.formatGroup(ctx, root, commands[name], domain.ChunkFiles(group, cfg.Format.Exclude, domain.DefaultChunkLimit))
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// formatGroup runs command once per chunk, one chunk at a time.
func (a *App) formatGroup(ctx context.Context, root string, command []string, chunks [][]string) {
	for _, chunk := range chunks {
		if ctx.Err() != nil {
			return
		}
		argv := append(slices.Clone(command), chunk...)
		if err := a.executor.Execute(ctx, root, argv, a.stdout, a.stderr); err != nil {
			a.logger.Error(zerr.With(zerr.Wrap(err, fmt.Sprintf("%s failed on %d files", command[0], len(chunk))), "files", chunk))
		}
	}
}
