package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sidekick-universe/sidekick/internal/cli/output"
	"github.com/sidekick-universe/sidekick/internal/discovery"
	"github.com/spf13/cobra"
)

// DiscoverOptions holds options for the discover command.
type DiscoverOptions struct {
	Depth int
	Watch bool
}

// NewDiscoverCommand creates the discover command.
func NewDiscoverCommand() *cobra.Command {
	opts := &DiscoverOptions{}

	cmd := &cobra.Command{
		Use:   "discover [DIR...]",
		Short: "Find SQLite databases on disk",
		Long: `Find SQLite database files under the given directories.

Without arguments the directories from discovery.dirs in the config are
searched. Hidden directories and node_modules are skipped. A file is
listed only when it carries the SQLite header.

With --watch the command keeps running and reports databases as they
appear or disappear, until interrupted.`,
		Example: `  sqlite-cli discover
  sqlite-cli discover ~/projects --depth 2
  sqlite-cli discover . --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(cmd, args, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Depth, "depth", -1, "Directory levels to search below each root (default from config)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Keep running and report changes")

	return cmd
}

func runDiscover(cmd *cobra.Command, args []string, opts *DiscoverOptions) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()

	roots := args
	if len(roots) == 0 {
		roots = cc.Cfg.Discovery.Dirs
	}
	scanOpts := discovery.Options{
		MaxDepth:   cc.Cfg.Discovery.MaxDepth,
		Extensions: cc.Cfg.Discovery.Extensions,
		Logger:     cc.Logger,
	}
	if opts.Depth >= 0 {
		scanOpts.MaxDepth = opts.Depth
	}

	dbs, err := discovery.Scan(ctx, roots, scanOpts)
	if err != nil {
		return err
	}
	if err := renderDatabases(cc.Renderer, dbs); err != nil {
		return err
	}

	if !opts.Watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := cc.Renderer
	r.Muted("Watching for changes, press Ctrl+C to stop")
	return discovery.Watch(ctx, roots, scanOpts, func(e discovery.Event) {
		status := "success"
		if e.Op == discovery.Removed {
			status = "failed"
		}
		r.StatusLine(e.Database.Path, status, e.Op.String())
	})
}

func renderDatabases(r *output.Renderer, dbs []discovery.Database) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(dbs)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Databases"))
		r.Println()
		if len(dbs) == 0 {
			r.Println("No databases found.")
			return nil
		}
		for _, db := range dbs {
			r.Println(output.FormatKeyValue(db.Path, humanSize(db.Size)))
		}
		return nil
	default:
		if len(dbs) == 0 {
			r.Muted("No databases found")
			return nil
		}
		styles := r.Styles()
		for _, db := range dbs {
			r.Printf("%s  %s\n", db.Path, styles.Muted.Render(humanSize(db.Size)))
		}
		r.Println()
		r.Muted(fmt.Sprintf("%d database(s) found", len(dbs)))
		return nil
	}
}

// humanSize formats a byte count with a binary unit.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
