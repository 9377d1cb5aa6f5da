package app

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/zerr"
)

// CountLines prints the number of non-blank lines of every tracked file selected by args,
// followed by the total, and returns the total.
//
// Arguments starting with "." are suffixes to include, arguments starting with "-" are
// substrings that exclude a file.
func (a *App) CountLines(ctx context.Context, root string, args []string) (int, error) {
	filter, ok := domain.ParseLineCountArgs(args)
	if !ok {
		return 0, zerr.With(
			zerr.Wrap(domain.ErrInvalidLineCountArgs, "pass suffixes as .ext and exclusions as -substring, e.g. line-count .ts -.test."),
			"args", args,
		)
	}

	files, err := a.files.Files(ctx, domain.ListOptions{Mode: domain.ListAll, Dir: root})
	if err != nil {
		return 0, err
	}

	total, counted := 0, 0
	for _, name := range files {
		if !filter.Matches(name) {
			continue
		}
		n, err := countNonBlank(a.fs, filepath.Join(root, name))
		if err != nil {
			return total, err
		}
		_, _ = fmt.Fprintf(a.stdout, "%s: %d\n", name, n)
		total += n
		counted++
	}

	if counted == 0 {
		a.logger.Warn("no files counted")
	}
	_, _ = fmt.Fprintf(a.stdout, "Total lines: %d\n", total)
	return total, nil
}

func countNonBlank(fs afero.Fs, path string) (int, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to read file"), "path", path)
	}
	n := 0
	for line := range bytes.Lines(data) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n, nil
}
