// Package exampledb builds the sample sidekick_universe database.
package exampledb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	// sqlite driver for the sample database.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DefaultPath is where the example command writes when no path is given.
const DefaultPath = "sidekick_universe.db"

// Tables are the sample tables in creation order.
var Tables = []string{"memories", "models", "conversations"}

// TableCount is the row count of one sample table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// Build creates or upgrades the sample database at path and returns the
// row count of each sample table. Running it on an up-to-date file changes
// nothing.
func Build(ctx context.Context, path string, logger *slog.Logger) ([]TableCount, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	if err := Migrate(ctx, db, logger); err != nil {
		return nil, err
	}

	counts := make([]TableCount, 0, len(Tables))
	for _, table := range Tables {
		var n int64
		// Table names are package constants.
		if err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, table)).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}

	logger.Info("example database ready", slog.String("path", path))
	return counts, nil
}

// Migrate runs all pending sample migrations on db.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	// Configure goose for embedded migrations
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger: logger})

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Version returns the applied migration version of db.
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}

// gooseLogger routes goose output into slog at debug level.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "goose"))
}

// Fatalf logs at error level. goose returns the failure to the caller as
// well, so the process is not terminated here.
func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), slog.String("component", "goose"))
}
