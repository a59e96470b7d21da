package commands

import (
	"github.com/sidekick-universe/sidekick/internal/explorer"
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "tables DATABASE",
		Short:   "List tables with row counts",
		Example: `  sqlite-cli tables app.db --format csv`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			ctx := cmd.Context()

			return cc.WithExplorer(ctx, args[0], func(exp *explorer.Explorer) error {
				tables, err := listTableCounts(ctx, exp)
				if err != nil {
					return err
				}
				if len(tables) == 0 {
					cc.Renderer.Muted("No tables found")
					return nil
				}
				return renderTableList(cc.Renderer.Writer(), cc.Cfg.Format, tables)
			})
		},
	}
}
