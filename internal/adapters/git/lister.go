// Package git lists repository files through the git command line.
package git

import (
	"bytes"
	"context"
	"io"
	"strings"

	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.FileLister = (*Lister)(nil)

// Lister implements ports.FileLister by running git through an Executor.
type Lister struct {
	executor ports.Executor
}

// NewLister creates a Lister that runs git with executor.
func NewLister(executor ports.Executor) *Lister {
	return &Lister{executor: executor}
}

// Files returns the file names git reports for opts.Mode, relative to the repository root.
func (l *Lister) Files(ctx context.Context, opts domain.ListOptions) ([]string, error) {
	argv := Command(opts.Mode)

	var stdout, stderr bytes.Buffer
	if err := l.executor.Execute(ctx, opts.Dir, argv, &stdout, &stderr); err != nil {
		err = zerr.With(zerr.Wrap(err, "git file listing failed"), "command", strings.Join(argv, " "))
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = zerr.With(err, "stderr", msg)
		}
		return nil, err
	}
	return splitLines(&stdout), nil
}

// Command returns the git invocation used for mode.
func Command(mode domain.ListMode) []string {
	switch mode {
	case domain.ListStaged:
		return []string{"git", "diff", "--diff-filter=ACMR", "--cached", "--name-only"}
	case domain.ListAll:
		return []string{"git", "ls-files"}
	default:
		return []string{"git", "diff", "HEAD", "--diff-filter=d", "--name-only"}
	}
}

func splitLines(r io.Reader) []string {
	data, _ := io.ReadAll(r)
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
