// Package commands implements the CLI commands for the ftool workspace tool.
package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/ftool/internal/app"
	"go.trai.ch/ftool/internal/build"
	"go.trai.ch/ftool/internal/core/domain"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for ftool.
type CLI struct {
	app        Application
	rootCmd    *cobra.Command
	cwd        string
	isTerminal func() bool
}

// Application represents the application logic interface.
type Application interface {
	RunWorkspace(ctx context.Context, opts app.RunOptions) error
	ListModules(ctx context.Context, root string) ([]domain.Module, error)
	CheckWorkspace(ctx context.Context, root string) error
	BumpVersions(ctx context.Context, root, bump string) error
	ChangeInternalDeps(ctx context.Context, root string, setToVersion bool) error
	Format(ctx context.Context, root, packageManager string) error
	CountLines(ctx context.Context, root string, args []string) (int, error)
	SetVerbose(verbose bool)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "ftool",
		Short:         "Task runner and maintenance tool for JavaScript workspaces",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:        a,
		rootCmd:    rootCmd,
		isTerminal: stderrIsTerminal,
	}

	rootCmd.PersistentFlags().StringVarP(&c.cwd, "cwd", "C", ".", "Workspace root holding the root package.json")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		c.app.SetVerbose(verbose)
	}

	rootCmd.AddCommand(c.newWorkspaceCmd())
	rootCmd.AddCommand(c.newFormatCmd())
	rootCmd.AddCommand(c.newLineCountCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// SetTerminal replaces the check deciding whether the interactive view can be shown.
func (c *CLI) SetTerminal(isTerminal func() bool) {
	c.isTerminal = isTerminal
}

func (c *CLI) root() (string, error) {
	root, err := filepath.Abs(c.cwd)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve workspace root"), "cwd", c.cwd)
	}
	return root, nil
}
