package commands

import (
	"fmt"
	"path/filepath"

	"github.com/TylerBrock/colorjson"
	"github.com/spf13/cobra"
	"go.trai.ch/ftool/internal/app"
	"go.trai.ch/ftool/internal/core/domain"
)

func (c *CLI) newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Operate on every module of the workspace",
	}

	cmd.AddCommand(c.newWorkspaceRunCmd())
	cmd.AddCommand(c.newWorkspaceListCmd())
	cmd.AddCommand(c.newWorkspaceCheckCmd())
	cmd.AddCommand(c.newWorkspaceVersionCmd())
	cmd.AddCommand(c.newWorkspaceLinkCmd(
		"link", "Point internal dependencies at the current version of each module", true))
	cmd.AddCommand(c.newWorkspaceLinkCmd(
		"unlink", "Point internal dependencies at "+domain.WorkspaceAnyVersion, false))
	return cmd
}

func (c *CLI) newWorkspaceRunCmd() *cobra.Command {
	var opts app.RunOptions

	cmd := &cobra.Command{
		Use:   "run [flags] [--] <command> [args...]",
		Short: "Run a command in every module, dependencies first",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			root, err := c.root()
			if err != nil {
				return err
			}
			opts.Root = root
			opts.Args = args
			opts.TUI = opts.TUI && c.isTerminal()
			return c.app.RunWorkspace(cmd.Context(), opts)
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVarP(&opts.Strategy, "strategy", "s", "",
		"Wait strategy: concurrent, serial or unordered (defaults to ftool.yaml)")
	cmd.Flags().BoolVarP(&opts.Unordered, "parallel", "p", false, "Start every module at once, ignoring dependencies")
	cmd.Flags().BoolVarP(&opts.KeepGoing, "keep-going", "k", false, "Keep running dependents of failed modules")
	cmd.Flags().BoolVar(&opts.TUI, "tui", false, "Show the interactive view when stderr is a terminal")
	cmd.Flags().BoolVar(&opts.PTY, "pty", false, "Attach every command to a pseudo-terminal")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "Print a timing table once the run is over")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Discard task output")
	return cmd
}

func (c *CLI) newWorkspaceListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the workspace modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := c.root()
			if err != nil {
				return err
			}
			modules, err := c.app.ListModules(cmd.Context(), root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !asJSON {
				for _, m := range modules {
					_, _ = fmt.Fprintf(out, "%s@%s %s\n", m.Name, m.Version, relative(root, m.Location))
				}
				return nil
			}

			formatter := colorjson.NewFormatter()
			formatter.Indent = 2
			formatter.DisabledColor = !stdoutIsTerminal()
			data, err := formatter.Marshal(modulesJSON(root, modules))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print modules as JSON")
	return cmd
}

// modulesJSON converts modules to the generic shapes the JSON formatter walks.
func modulesJSON(root string, modules []domain.Module) []interface{} {
	list := make([]interface{}, 0, len(modules))
	for _, m := range modules {
		entry := map[string]interface{}{
			"name":     m.Name.String(),
			"version":  m.Version,
			"location": relative(root, m.Location),
		}
		for _, kind := range domain.DependencyKinds {
			names := make([]interface{}, 0, len(m.Relations(kind)))
			for _, dep := range m.Relations(kind) {
				names = append(names, dep.String())
			}
			entry[kind.ManifestKey()] = names
		}
		list = append(list, entry)
	}
	return list
}

func relative(root, location string) string {
	if rel, err := filepath.Rel(root, location); err == nil {
		return rel
	}
	return location
}

func (c *CLI) newWorkspaceCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report missing dependencies and dependency cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := c.root()
			if err != nil {
				return err
			}
			return c.app.CheckWorkspace(cmd.Context(), root)
		},
	}
}

func (c *CLI) newWorkspaceVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version <major|minor|patch|N|N.N|N.N.N>",
		Short: "Bump the version of every module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := c.root()
			if err != nil {
				return err
			}
			return c.app.BumpVersions(cmd.Context(), root, args[0])
		},
	}
}

func (c *CLI) newWorkspaceLinkCmd(use, short string, setToVersion bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := c.root()
			if err != nil {
				return err
			}
			return c.app.ChangeInternalDeps(cmd.Context(), root, setToVersion)
		},
	}
}
