package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/ftool/internal/core/domain"
)

func (c *CLI) newFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "format [" + strings.Join(domain.PackageManagers, "|") + "]",
		Short:     "Format the files changed since HEAD",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: domain.PackageManagers,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := c.root()
			if err != nil {
				return err
			}
			var pm string
			if len(args) == 1 {
				pm = args[0]
			}
			return c.app.Format(cmd.Context(), root, pm)
		},
	}
}

func (c *CLI) newLineCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "line-count <.ext>... [-substr]...",
		Aliases: []string{"linecount"},
		Short:   "Count non-blank lines of tracked files by suffix",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := c.root()
			if err != nil {
				return err
			}
			_, err = c.app.CountLines(cmd.Context(), root, args)
			return err
		},
	}
	// Exclusions look like shorthand flags; everything after the first suffix is an argument.
	cmd.Flags().SetInterspersed(false)
	return cmd
}
