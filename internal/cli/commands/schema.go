package commands

import (
	"github.com/sidekick-universe/sidekick/internal/explorer"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema DATABASE [TABLE]",
		Short: "Show the schema of a database or one table",
		Long: `Show tables with their row counts, columns, and indexes as a tree.

With a TABLE argument only that table is shown. The name must be an
existing table in the database.`,
		Example: `  sqlite-cli schema app.db
  sqlite-cli schema app.db users
  sqlite-cli schema app.db --format json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			ctx := cmd.Context()

			return cc.WithExplorer(ctx, args[0], func(exp *explorer.Explorer) error {
				var schemas []explorer.TableSchema
				if len(args) == 2 {
					t, err := exp.ValidateTable(ctx, args[1])
					if err != nil {
						return err
					}
					s, err := exp.DescribeTable(ctx, t)
					if err != nil {
						return err
					}
					schemas = append(schemas, *s)
				} else {
					all, err := exp.Schema(ctx)
					if err != nil {
						return err
					}
					schemas = all
				}

				if len(schemas) == 0 {
					cc.Renderer.Muted("No tables found")
					return nil
				}
				return renderSchema(cc.Renderer.Writer(), cc.Cfg.Format, schemas)
			})
		},
	}
}
