package cli

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/sidekick-universe/sidekick/internal/cli/commands"
	"github.com/sidekick-universe/sidekick/internal/cli/config"
	"github.com/sidekick-universe/sidekick/internal/cli/output"
	"github.com/sidekick-universe/sidekick/internal/collective"
	"github.com/spf13/cobra"
)

// NewCollectiveCmd creates the join-collective root command.
func NewCollectiveCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "join-collective",
		Short: "Chat with the autonomous collective",
		Long: `join-collective starts the collective MCP server and joins its
shared conversation as a human participant.

Every message is relayed through the server's converse tool under a fixed
session token, so all participants share one conversation.`,
		Example: `  join-collective
  join-collective --name Ada --uuid HUMAN_ADA
  join-collective --server-dir ~/src/sidekick4llm --timeout 5m`,
		Version: Version,
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadCommandContext(cmd, cfgFile)
		},
		RunE:          runCollective,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./sidekick.yaml)")
	pf.String("session", config.DefaultSessionToken, "Collective session token")
	pf.String("uuid", config.DefaultAgentUUID, "Participant UUID")
	pf.String("name", config.DefaultHumanName, "Participant display name")
	pf.String("agent", config.DefaultAgent, "Agent model requested for responses")
	pf.String("server-dir", "", "Collective server checkout (default: $SIDEKICK4LLM_PATH or ~/Dev/sidekick4llm)")
	pf.Duration("timeout", config.DefaultTimeout, "Timeout for each collective call")
	pf.BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewVersionCommand("join-collective", Version))
	rootCmd.AddCommand(NewCompletionCommand("join-collective"))

	return rootCmd
}

func runCollective(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	cfg := config.GetConfig(ctx)
	logger := config.GetLogger(ctx)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	r.Println()
	r.Header(1, "Autonomous Collective Interface")
	r.Muted("Joining patient0 and patient1 in shared dwelling space")
	r.Println()

	client, err := collective.Dial(ctx, collectiveConfig(cfg, logger))
	if err != nil {
		return fmt.Errorf("failed to join collective: %w", err)
	}

	in, err := collective.NewLineReader(cfg.Collective.HumanName, "")
	if err != nil {
		_ = client.Close()
		return err
	}

	return collective.NewSession(client, in, r.Writer()).Run(ctx)
}

// collectiveConfig maps the loaded settings onto a client configuration.
func collectiveConfig(cfg *config.Config, logger *slog.Logger) collective.Config {
	c := cfg.Collective
	return collective.Config{
		Command:       c.Command,
		Args:          c.Args,
		Env:           c.Env,
		SessionToken:  c.SessionToken,
		AgentUUID:     c.AgentUUID,
		HumanName:     c.HumanName,
		Agent:         c.Agent,
		Tool:          c.Tool,
		ViewCount:     c.ViewCount,
		Timeout:       c.Timeout,
		ClientName:    "join-collective",
		ClientVersion: Version,
		Logger:        logger,
	}
}

// ExecuteCollective runs the join-collective root command.
func ExecuteCollective() error {
	return run(NewCollectiveCmd())
}
