// Package cli provides the command-line interfaces for the sidekick tools.
package cli

import (
	"fmt"
	"os"

	"github.com/sidekick-universe/sidekick/internal/cli/commands"
	"github.com/sidekick-universe/sidekick/internal/cli/config"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the sqlite-cli root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "sqlite-cli",
		Short: "Explore SQLite databases from the terminal",
		Long: `sqlite-cli explores SQLite databases: list tables, inspect schemas,
run queries, and page through rows.

Databases are opened read-only unless --write is given. Table names
passed to commands must exist in the database catalog.

With --db and no subcommand an interactive REPL is started.`,
		Example: `  sqlite-cli --db app.db
  sqlite-cli tables app.db
  sqlite-cli query app.db "SELECT * FROM users LIMIT 5"`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadCommandContext(cmd, cfgFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetConfig(cmd.Context())
			if cfg.Database == "" {
				return cmd.Help()
			}
			return commands.RunInteractive(cmd, cfg.Database)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Built with Go and SQLite
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./sidekick.yaml)")
	pf.StringP("db", "d", "", "Database to open in the interactive REPL")
	pf.Bool("write", false, "Open databases read-write")
	pf.Int("max-rows", config.DefaultMaxRows, "Maximum rows fetched per query")
	pf.Int("page-size", config.DefaultPageSize, "Rows displayed per result")
	pf.StringP("format", "f", config.DefaultFormat, "Result format (table|json|csv|md|yaml)")
	pf.StringP("output", "o", "", "Output mode (auto|text|markdown|json)")
	pf.BoolP("verbose", "v", false, "Verbose output")

	registerEnumCompletion(rootCmd, "format", config.Formats)
	registerEnumCompletion(rootCmd, "output", config.OutputModes)

	rootCmd.AddCommand(commands.NewVersionCommand("sqlite-cli", Version))
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(commands.NewTablesCommand())
	rootCmd.AddCommand(commands.NewCreateCommand())
	rootCmd.AddCommand(commands.NewExampleCommand())
	rootCmd.AddCommand(commands.NewDiscoverCommand())
	rootCmd.AddCommand(commands.NewBrowseCommand())
	rootCmd.AddCommand(NewCompletionCommand("sqlite-cli"))

	return rootCmd
}

// loadCommandContext loads configuration with the root's persistent flags
// and stores the config and logger in the command context.
func loadCommandContext(cmd *cobra.Command, cfgFile string) error {
	// Skip config loading for help and completion commands
	if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
		return nil
	}

	cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}

	logger := cfg.NewLogger(cmd.ErrOrStderr())
	ctx := config.WithConfig(cmd.Context(), cfg)
	ctx = config.WithLogger(ctx, logger)
	cmd.SetContext(ctx)

	if configFile := config.GetConfigFileUsed(); configFile != "" {
		logger.Debug("using config file", "path", configFile)
	}
	return nil
}

func registerEnumCompletion(cmd *cobra.Command, flag string, values []string) {
	_ = cmd.RegisterFlagCompletionFunc(flag, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	})
}

// Execute runs the sqlite-cli root command.
func Execute() error {
	return run(NewRootCmd())
}

func run(cmd *cobra.Command) error {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
