package git_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ftool/internal/adapters/git"
	"go.trai.ch/ftool/internal/adapters/shell"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/ftool/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		mode domain.ListMode
		want []string
	}{
		{domain.ListChanged, []string{"git", "diff", "HEAD", "--diff-filter=d", "--name-only"}},
		{domain.ListStaged, []string{"git", "diff", "--diff-filter=ACMR", "--cached", "--name-only"}},
		{domain.ListAll, []string{"git", "ls-files"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, git.Command(tt.mode))
	}
}

func TestLister_Files(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)

	executor.EXPECT().
		Execute(gomock.Any(), "/repo", git.Command(domain.ListAll), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ []string, stdout, _ io.Writer) error {
			_, _ = fmt.Fprint(stdout, "a.ts\r\nsrc/b.go\n")
			return nil
		})

	files, err := git.NewLister(executor).Files(context.Background(), domain.ListOptions{Mode: domain.ListAll, Dir: "/repo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts", "src/b.go"}, files)
}

func TestLister_Files_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	files, err := git.NewLister(executor).Files(context.Background(), domain.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLister_Files_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	cause := errors.New("exit status 128")

	executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ []string, _, stderr io.Writer) error {
			_, _ = fmt.Fprintln(stderr, "fatal: not a git repository")
			return cause
		})

	_, err := git.NewLister(executor).Files(context.Background(), domain.ListOptions{Mode: domain.ListStaged})
	require.ErrorIs(t, err, cause)

	var zErr *zerr.Error
	require.True(t, errors.As(err, &zErr))
	meta := zErr.Metadata()
	assert.Equal(t, "fatal: not a git repository", meta["stderr"])
	assert.Equal(t, "git diff --diff-filter=ACMR --cached --name-only", meta["command"])
}

func TestLister_Files_Repository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	gitCmd := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	write := func(name, content string) {
		t.Helper()
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	gitCmd("init", "-q")
	write("keep.ts", "a\n")
	write("gone.ts", "b\n")
	gitCmd("add", ".")
	gitCmd("commit", "-q", "-m", "initial")

	write("keep.ts", "a\nb\n")
	write("lib/new.go", "package lib\n")
	require.NoError(t, os.Remove(filepath.Join(dir, "gone.ts")))
	gitCmd("add", "lib/new.go")

	ctrl := gomock.NewController(t)
	lister := git.NewLister(shell.NewExecutor(mocks.NewMockLogger(ctrl)))
	ctx := context.Background()

	changed, err := lister.Files(ctx, domain.ListOptions{Mode: domain.ListChanged, Dir: dir})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"keep.ts", "lib/new.go"}, changed)

	staged, err := lister.Files(ctx, domain.ListOptions{Mode: domain.ListStaged, Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/new.go"}, staged)

	all, err := lister.Files(ctx, domain.ListOptions{Mode: domain.ListAll, Dir: dir})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gone.ts", "keep.ts", "lib/new.go"}, all)
}
