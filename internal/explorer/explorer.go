// Package explorer is the query gate over a single SQLite file.
//
// An Explorer owns exactly one connection for the lifetime of a session.
// It validates table identifiers against the live catalog before they are
// interpolated into any statement, executes caller-supplied SQL, and reports
// failures through the error taxonomy in errors.go.
package explorer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	// sqlite driver registered as "sqlite".
	_ "modernc.org/sqlite"
)

// DefaultMaxRows bounds how many rows a single query materializes.
const DefaultMaxRows = 10000

// ErrDatabaseExists is returned by Create when the target exists and
// overwrite was not requested.
var ErrDatabaseExists = errors.New("database already exists")

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Config holds the settings for opening an Explorer.
type Config struct {
	// Path is the database file on disk.
	Path string
	// ReadOnly opens the file with the engine's read-only mode.
	ReadOnly bool
	// MaxRows caps rows fetched per query. Zero means DefaultMaxRows;
	// negative disables the cap.
	MaxRows int
	Logger  *slog.Logger
}

// Explorer is an open session on one database file.
type Explorer struct {
	db       *sql.DB
	conn     *sql.Conn
	path     string
	readOnly bool
	maxRows  int
	logger   *slog.Logger
}

// Open opens the database at cfg.Path. Any failure to reach a usable
// database is returned as a *ConnectionError.
func Open(ctx context.Context, cfg Config) (*Explorer, error) {
	if cfg.Path == "" {
		return nil, &ConnectionError{Path: cfg.Path, Err: errors.New("no database path given")}
	}

	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, &ConnectionError{Path: cfg.Path, Err: err}
	}
	if info.IsDir() {
		return nil, &ConnectionError{Path: cfg.Path, Err: errors.New("path is a directory")}
	}

	mode := "rw"
	if cfg.ReadOnly {
		mode = "ro"
	}
	db, err := openDB("sqlite", fileDSN(cfg.Path, mode))
	if err != nil {
		return nil, &ConnectionError{Path: cfg.Path, Err: err}
	}

	return New(ctx, db, cfg)
}

// New wraps an already opened pool. It pins a single connection and probes
// the catalog so that unreadable or corrupt files fail here rather than on
// the first query. On failure the pool is closed.
func New(ctx context.Context, db *sql.DB, cfg Config) (*Explorer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	maxRows := cfg.MaxRows
	if maxRows == 0 {
		maxRows = DefaultMaxRows
	}

	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Path: cfg.Path, Err: err}
	}

	var objects int
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master").Scan(&objects); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, &ConnectionError{Path: cfg.Path, Err: err}
	}

	logger.Debug("opened database",
		slog.String("path", cfg.Path),
		slog.Bool("read_only", cfg.ReadOnly),
		slog.Int("catalog_objects", objects))

	return &Explorer{
		db:       db,
		conn:     conn,
		path:     cfg.Path,
		readOnly: cfg.ReadOnly,
		maxRows:  maxRows,
		logger:   logger,
	}, nil
}

// Path returns the database file path.
func (e *Explorer) Path() string {
	return e.path
}

// ReadOnly reports whether the connection was opened read-only.
func (e *Explorer) ReadOnly() bool {
	return e.readOnly
}

// Close releases the connection. It is safe to call more than once.
func (e *Explorer) Close() error {
	if e == nil || e.db == nil {
		return nil
	}

	var errs []error
	if e.conn != nil {
		errs = append(errs, e.conn.Close())
		e.conn = nil
	}
	errs = append(errs, e.db.Close())
	e.db = nil

	e.logger.Debug("closed database", slog.String("path", e.path))
	return errors.Join(errs...)
}

// Create makes a new, empty database file at path. An existing file is
// replaced only when overwrite is set.
func Create(ctx context.Context, path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			return fmt.Errorf("%s: %w", path, ErrDatabaseExists)
		}
		for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove %s: %w", p, err)
			}
		}
	}

	db, err := openDB("sqlite", fileDSN(path, "rwc"))
	if err != nil {
		return &ConnectionError{Path: path, Err: err}
	}
	defer func() { _ = db.Close() }()

	// SQLite defers writing the header until the first change.
	if _, err := db.ExecContext(ctx, `CREATE TABLE _sidekick_init (id INTEGER); DROP TABLE _sidekick_init;`); err != nil {
		return &ConnectionError{Path: path, Err: err}
	}
	return nil
}

// fileDSN builds a URI filename so the driver honours the open mode.
// A plain path with "?mode=ro" would have its query stripped.
func fileDSN(path, mode string) string {
	q := url.Values{}
	q.Set("mode", mode)
	q.Add("_pragma", "busy_timeout(5000)")
	// mode=ro covers the main file only; query_only also refuses writes to
	// attached databases.
	if mode == "ro" {
		q.Add("_pragma", "query_only(1)")
	}
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?" + q.Encode()
}
