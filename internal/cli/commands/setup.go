package commands

import (
	"context"
	"log/slog"

	"github.com/sidekick-universe/sidekick/internal/cli/config"
	"github.com/sidekick-universe/sidekick/internal/cli/output"
	"github.com/sidekick-universe/sidekick/internal/explorer"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds the dependencies for cmd from its context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// OpenExplorer opens path with the configured access mode and row cap.
// The caller must Close the explorer.
func (c *CommandContext) OpenExplorer(ctx context.Context, path string) (*explorer.Explorer, error) {
	return explorer.Open(ctx, explorer.Config{
		Path:     path,
		ReadOnly: c.Cfg.ReadOnly,
		MaxRows:  c.Cfg.MaxRows,
		Logger:   c.Logger,
	})
}

// WithExplorer opens path, runs fn, and closes the explorer on every path.
func (c *CommandContext) WithExplorer(ctx context.Context, path string, fn func(*explorer.Explorer) error) error {
	exp, err := c.OpenExplorer(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = exp.Close() }()

	return fn(exp)
}
