package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.MaxRows < 0 {
		errs = append(errs, fmt.Errorf("max_rows must not be negative, got %d", c.MaxRows))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", c.PageSize))
	}
	if !slices.Contains(Formats, c.Format) {
		errs = append(errs, fmt.Errorf("unknown format %q (want one of %s)", c.Format, strings.Join(Formats, ", ")))
	}
	if !slices.Contains(OutputModes, c.OutputFormat) {
		errs = append(errs, fmt.Errorf("unknown output mode %q (want one of %s)", c.OutputFormat, strings.Join(OutputModes, ", ")))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Discovery.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("discovery.max_depth must not be negative, got %d", c.Discovery.MaxDepth))
	}
	if c.Collective.ViewCount <= 0 {
		errs = append(errs, fmt.Errorf("collective.view_count must be positive, got %d", c.Collective.ViewCount))
	}
	if c.Collective.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("collective.timeout must be positive, got %s", c.Collective.Timeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ValidateDatabase checks that a database path was provided.
func (c *Config) ValidateDatabase() error {
	if c.Database == "" {
		return fmt.Errorf("no database given\nHint: pass a DATABASE argument, --db, or set database in sidekick.yaml")
	}
	return nil
}

// Level returns the slog level: debug when verbose, otherwise log_level.
func (c *Config) Level() (slog.Level, error) {
	if c.Verbose {
		return slog.LevelDebug, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// NewLogger builds the text logger commands use, writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
