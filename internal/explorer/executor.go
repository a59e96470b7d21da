package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// QueryResult is the uniform outcome of Execute.
type QueryResult struct {
	Columns []string `json:"columns" yaml:"columns"`
	Rows    [][]any  `json:"rows" yaml:"rows"`
	// RowsAffected is set for statements that produce no columns.
	RowsAffected int64 `json:"rows_affected" yaml:"rows_affected"`
	// Tabular is true when the statement produced a result set, even an
	// empty one.
	Tabular bool `json:"tabular" yaml:"tabular"`
	// Truncated is true when the row cap stopped the fetch early.
	Truncated bool          `json:"truncated" yaml:"truncated"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Message summarizes a non-tabular result for display.
func (r *QueryResult) Message() string {
	if r.Tabular {
		return fmt.Sprintf("%d rows", len(r.Rows))
	}
	return fmt.Sprintf("Query executed successfully. Rows affected: %d", r.RowsAffected)
}

// errMultipleStatements rejects batches, which the driver would run up to
// the first failure and report only the last result set of.
var errMultipleStatements = errors.New("only one statement may be executed at a time")

// Execute runs one caller-supplied SQL statement on the session connection.
// Any engine failure is returned as a *QueryError; the Explorer stays
// usable.
func (e *Explorer) Execute(ctx context.Context, query string) (*QueryResult, error) {
	query = strings.TrimSpace(query)
	stmts, _ := SplitStatements(query)
	switch {
	case len(stmts) == 0:
		return nil, &QueryError{SQL: query, Err: errors.New("empty statement")}
	case len(stmts) > 1:
		return nil, &QueryError{SQL: query, Err: errMultipleStatements}
	}
	stmt := stmts[0]

	start := time.Now()

	before, err := e.totalChanges(ctx)
	if err != nil {
		return nil, &QueryError{SQL: query, Err: err}
	}

	rows, err := e.conn.QueryContext(ctx, stmt)
	if err != nil {
		return nil, &QueryError{SQL: query, Err: err}
	}

	result, err := e.collect(rows)
	// Rows must be released before the connection is reused below.
	if cerr := rows.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return nil, &QueryError{SQL: query, Err: err}
	}

	if !result.Tabular {
		after, err := e.totalChanges(ctx)
		if err != nil {
			return nil, &QueryError{SQL: query, Err: err}
		}
		result.RowsAffected = after - before
	}

	result.Duration = time.Since(start)

	e.logger.Debug("executed statement",
		slog.Bool("tabular", result.Tabular),
		slog.Int("rows", len(result.Rows)),
		slog.Int64("rows_affected", result.RowsAffected),
		slog.Bool("truncated", result.Truncated),
		slog.Duration("duration", result.Duration))

	return result, nil
}

// rowScanner is the subset of *sql.Rows that collect needs.
type rowScanner interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func (e *Explorer) collect(rows rowScanner) (*QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: cols, Tabular: len(cols) > 0}
	if !result.Tabular {
		for rows.Next() {
		}
		return result, rows.Err()
	}

	result.Rows = [][]any{}
	for rows.Next() {
		if e.maxRows > 0 && len(result.Rows) >= e.maxRows {
			result.Truncated = true
			break
		}

		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	return result, rows.Err()
}

// totalChanges reads the connection's cumulative change counter. The delta
// around a statement is its affected-row count; DDL leaves it unchanged.
func (e *Explorer) totalChanges(ctx context.Context) (int64, error) {
	var n int64
	if err := e.conn.QueryRowContext(ctx, "SELECT total_changes()").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
