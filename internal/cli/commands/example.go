package commands

import (
	"fmt"

	"github.com/sidekick-universe/sidekick/internal/cli/output"
	"github.com/sidekick-universe/sidekick/internal/exampledb"
	"github.com/spf13/cobra"
)

// NewExampleCommand creates the example command.
func NewExampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "example [PATH]",
		Short: "Create the sample sidekick_universe database",
		Long: `Create a sample database with memories, models, and conversations.

The file is written to PATH, or sidekick_universe.db in the current
directory. Running it again on the same file leaves it unchanged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			path := exampledb.DefaultPath
			if len(args) == 1 {
				path = args[0]
			}

			counts, err := exampledb.Build(cmd.Context(), path, cc.Logger)
			if err != nil {
				return err
			}

			r := cc.Renderer
			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(map[string]any{"path": path, "tables": counts})
			case output.ModeMarkdown:
				r.Println(output.FormatHeader(1, "Example Database"))
				r.Println()
				r.Println(output.FormatKeyValue("Path", path))
				for _, c := range counts {
					r.Println(output.FormatKeyValue(c.Table, fmt.Sprintf("%d rows", c.Rows)))
				}
			default:
				r.Success(fmt.Sprintf("Created %s with sample data", path))
				for _, c := range counts {
					r.StatusLine(c.Table, "success", fmt.Sprintf("%d rows", c.Rows))
				}
			}
			return nil
		},
	}
}
