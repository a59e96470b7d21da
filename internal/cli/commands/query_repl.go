package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sidekick-universe/sidekick/internal/cli/config"
	"github.com/sidekick-universe/sidekick/internal/explorer"
	"github.com/spf13/cobra"
)

const (
	replPrompt         = "sqlite> "
	replContinuePrompt = "   ...> "
)

// lineReader is the part of *readline.Instance the REPL loop uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// RunInteractive starts the REPL on the database at path.
func RunInteractive(cmd *cobra.Command, path string) error {
	return runREPL(cmd, NewCommandContext(cmd), path)
}

func runREPL(cmd *cobra.Command, cc *CommandContext, path string) error {
	ctx := cmd.Context()

	exp, err := cc.OpenExplorer(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = exp.Close() }()

	historyFile := cc.Cfg.HistoryFile
	if historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(historyFile), 0750); err != nil {
			cc.Logger.Warn("history disabled", "path", historyFile, "error", err)
			historyFile = ""
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newTableCompleter(ctx, exp),
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}

	r := newREPL(cc, exp, rl)

	mode := "read-only"
	if !exp.ReadOnly() {
		mode = "read-write"
	}
	styles := cc.Renderer.Styles()
	_, _ = fmt.Fprintf(r.out, "%s (%s, %s)\n", styles.Header.Render("SQLite Explorer"), path, mode)
	_, _ = fmt.Fprintln(r.out, styles.Muted.Render("Type .help for commands, .exit to quit. End statements with ; or press Enter on an empty line"))
	_, _ = fmt.Fprintln(r.out)

	return r.run(ctx)
}

// repl is the interactive loop over one open explorer.
type repl struct {
	exp    *explorer.Explorer
	in     lineReader
	out    io.Writer
	errOut io.Writer
	view   resultView
	logger *slog.Logger

	pending strings.Builder
}

func newREPL(cc *CommandContext, exp *explorer.Explorer, in lineReader) *repl {
	return &repl{
		exp:    exp,
		in:     in,
		out:    cc.Renderer.Writer(),
		errOut: cc.Renderer.ErrWriter(),
		logger: cc.Logger,
		view: resultView{
			format:   cc.Cfg.Format,
			pageSize: cc.Cfg.PageSize,
			null:     cc.Renderer.Styles().Muted.Render(nullText),
			warn:     cc.Renderer.ErrWriter(),
		},
	}
}

// run reads statements until .exit or EOF. Statement failures are
// reported and the loop continues.
func (r *repl) run(ctx context.Context) error {
	defer func() { _ = r.in.Close() }()

	for {
		line, err := r.in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			r.pending.Reset()
			r.in.SetPrompt(replPrompt)
			_, _ = fmt.Fprintln(r.errOut, "Interrupted. Type .exit to quit.")
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			// An empty line submits a statement left without its semicolon.
			if r.pending.Len() > 0 {
				r.submit(ctx, true)
			}
			continue
		}

		// Dot commands are only recognized outside a pending statement.
		if r.pending.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := r.handleDotCommand(ctx, line); quit {
				return nil
			}
			continue
		}

		r.pending.WriteString(line)
		r.pending.WriteString("\n")
		r.submit(ctx, false)
	}
}

// submit runs the pending statements once the buffer ends in a complete
// one, or unconditionally when force is set. Statements run in order and
// the first failure discards the rest.
func (r *repl) submit(ctx context.Context, force bool) {
	stmts, complete := explorer.SplitStatements(r.pending.String())
	if !complete && !force {
		r.in.SetPrompt(replContinuePrompt)
		return
	}
	r.pending.Reset()
	r.in.SetPrompt(replPrompt)

	for _, stmt := range stmts {
		if !r.execute(ctx, stmt) {
			return
		}
	}
}

// execute runs one statement and reports whether it succeeded.
func (r *repl) execute(ctx context.Context, stmt string) bool {
	res, err := r.exp.Execute(ctx, stmt)
	if err != nil {
		r.report(err)
		return false
	}
	if err := renderResult(r.out, res, r.view); err != nil {
		r.report(err)
	}
	_, _ = fmt.Fprintln(r.out)
	return true
}

func (r *repl) report(err error) {
	_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
}

// handleDotCommand runs a dot command and reports whether the REPL should
// exit.
func (r *repl) handleDotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(r.out)

	case ".tables":
		tables, err := listTableCounts(ctx, r.exp)
		if err != nil {
			r.report(err)
			return false
		}
		if err := renderTableList(r.out, r.view.format, tables); err != nil {
			r.report(err)
		}

	case ".schema":
		r.showSchema(ctx, args)

	case ".count":
		if len(args) != 1 {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .count <table>")
			return false
		}
		t, err := r.exp.ValidateTable(ctx, args[0])
		if err != nil {
			r.report(err)
			return false
		}
		n, err := r.exp.CountRows(ctx, t)
		if err != nil {
			r.report(err)
			return false
		}
		_, _ = fmt.Fprintf(r.out, "%s: %d rows\n", t, n)

	case ".format":
		if len(args) == 0 {
			_, _ = fmt.Fprintf(r.out, "format: %s\n", r.view.format)
			return false
		}
		if !slices.Contains(config.Formats, args[0]) {
			_, _ = fmt.Fprintf(r.errOut, "Unknown format %q (want one of %s)\n", args[0], strings.Join(config.Formats, ", "))
			return false
		}
		r.view.format = args[0]

	case ".limit":
		if len(args) == 0 {
			_, _ = fmt.Fprintf(r.out, "limit: %d\n", r.view.pageSize)
			return false
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .limit <positive number>")
			return false
		}
		r.view.pageSize = n

	case ".clear":
		_, _ = fmt.Fprint(r.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(r.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (r *repl) showSchema(ctx context.Context, args []string) {
	if len(args) == 0 {
		schemas, err := r.exp.Schema(ctx)
		if err != nil {
			r.report(err)
			return
		}
		if err := renderSchema(r.out, r.view.format, schemas); err != nil {
			r.report(err)
		}
		return
	}

	t, err := r.exp.ValidateTable(ctx, args[0])
	if err != nil {
		r.report(err)
		return
	}
	s, err := r.exp.DescribeTable(ctx, t)
	if err != nil {
		r.report(err)
		return
	}
	if err := renderSchema(r.out, r.view.format, []explorer.TableSchema{*s}); err != nil {
		r.report(err)
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .tables          List tables with row counts
  .schema [table]  Show the schema of one table or all tables
  .count <table>   Count rows in a table
  .format <fmt>    Set the output format (table, json, csv, md, yaml)
  .limit <n>       Set the number of rows displayed per result
  .clear           Clear the screen
  .exit / .quit    Exit the REPL

Tips:
  - SQL statements end with a semicolon (;) or an empty line
  - Ctrl-C discards the statement being typed
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// listTableCounts returns every table with its row count. Names come from
// the catalog and still pass through validation before being counted.
func listTableCounts(ctx context.Context, exp *explorer.Explorer) ([]tableCount, error) {
	names, err := exp.Tables(ctx)
	if err != nil {
		return nil, err
	}

	counts := make([]tableCount, 0, len(names))
	for _, name := range names {
		t, err := exp.ValidateTable(ctx, name)
		if err != nil {
			return nil, err
		}
		n, err := exp.CountRows(ctx, t)
		if err != nil {
			return nil, err
		}
		counts = append(counts, tableCount{Name: name, Rows: n})
	}
	return counts, nil
}

// newTableCompleter creates a readline completer for table names.
func newTableCompleter(ctx context.Context, exp *explorer.Explorer) *readline.PrefixCompleter {
	// Completion is best effort; a catalog failure leaves only dot commands.
	names, _ := exp.Tables(ctx)

	tableItems := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, name := range names {
		tableItems = append(tableItems, readline.PcItem(name))
	}

	items := append([]readline.PrefixCompleterInterface{}, tableItems...)
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", tableItems...),
		readline.PcItem(".count", tableItems...),
		readline.PcItem(".format",
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("csv"),
			readline.PcItem("md"),
			readline.PcItem("yaml"),
		),
		readline.PcItem(".limit"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
