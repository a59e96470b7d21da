package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sidekick-universe/sidekick/internal/cli/output"
	"github.com/sidekick-universe/sidekick/internal/explorer"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query DATABASE [SQL]",
		Short: "Run SQL against a database",
		Long: `Run SQL against a SQLite database.

SQL is taken from the arguments, from --input, or from piped stdin.
When none is given on a terminal, an interactive REPL starts instead.

The database is opened read-only unless --write is set.`,
		Example: `  # Execute SQL directly
  sqlite-cli query app.db "SELECT * FROM users"

  # Read SQL from a file
  sqlite-cli query app.db --input report.sql

  # Pipe SQL and emit JSON
  echo "SELECT 1" | sqlite-cli query app.db --format json

  # Interactive mode
  sqlite-cli query app.db`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cc := NewCommandContext(cmd)
	path := args[0]

	// Determine SQL source
	var sqlQuery string

	switch {
	case len(args) > 1:
		sqlQuery = strings.Join(args[1:], " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(cmd.InOrStdin()):
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runREPL(cmd, cc, path)
	}

	return cc.WithExplorer(cmd.Context(), path, func(exp *explorer.Explorer) error {
		return executeAndRender(cmd.Context(), cc, exp, sqlQuery)
	})
}

// executeAndRender runs one statement and renders it with the configured
// format and page size.
func executeAndRender(ctx context.Context, cc *CommandContext, exp *explorer.Explorer, sqlQuery string) error {
	res, err := exp.Execute(ctx, sqlQuery)
	if err != nil {
		return err
	}
	return renderResult(cc.Renderer.Writer(), res, resultView{
		format:   cc.Cfg.Format,
		pageSize: cc.Cfg.PageSize,
		null:     cc.Renderer.Styles().Muted.Render(nullText),
		warn:     cc.Renderer.ErrWriter(),
	})
}

// isTerminal reports whether r is an interactive terminal. Readers that
// are not files, such as test buffers, are treated as piped input.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return output.IsTerminal(f)
}
