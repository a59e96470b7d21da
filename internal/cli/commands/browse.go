package commands

import (
	"github.com/sidekick-universe/sidekick/internal/cli/browse"
	"github.com/sidekick-universe/sidekick/internal/explorer"
	"github.com/spf13/cobra"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse DATABASE TABLE",
		Short: "Page through a table in the terminal",
		Long: `Open a full-screen browser over every row of TABLE.

Keys: n/p or arrows to change page, g/G for first/last page, q to quit.
The page size comes from --page-size.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			ctx := cmd.Context()

			return cc.WithExplorer(ctx, args[0], func(exp *explorer.Explorer) error {
				t, err := exp.ValidateTable(ctx, args[1])
				if err != nil {
					return err
				}
				return browse.Run(ctx, exp, t, cc.Cfg.PageSize, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}
