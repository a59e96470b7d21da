package explorer

import (
	"context"
	"log/slog"
	"strings"
)

// catalogLookup is the only query used to decide identifier membership.
const catalogLookup = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`

// TableName is a table identifier that was confirmed present in the catalog.
// The zero value is invalid; the only way to obtain a usable TableName is
// Explorer.ValidateTable.
type TableName struct {
	name string
}

// String returns the raw table name.
func (t TableName) String() string {
	return t.name
}

// IsZero reports whether t was not produced by ValidateTable.
func (t TableName) IsZero() bool {
	return t.name == ""
}

// Quoted returns the name as a double-quoted SQL identifier.
func (t TableName) Quoted() string {
	return `"` + strings.ReplaceAll(t.name, `"`, `""`) + `"`
}

// TableExists reports whether exactly one table called name exists.
// The lookup is parameterized; name never reaches the SQL text.
func (e *Explorer) TableExists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := e.conn.QueryRowContext(ctx, catalogLookup, name).Scan(&n); err != nil {
		return false, &QueryError{SQL: catalogLookup, Err: err}
	}
	return n == 1, nil
}

// ValidateTable is the gate every dynamically built statement passes
// through. Unknown names yield an *InvalidIdentifierError.
func (e *Explorer) ValidateTable(ctx context.Context, name string) (TableName, error) {
	ok, err := e.TableExists(ctx, name)
	if err != nil {
		return TableName{}, err
	}
	if !ok {
		e.logger.Debug("rejected table identifier", slog.String("name", name))
		return TableName{}, &InvalidIdentifierError{Name: name}
	}
	return TableName{name: name}, nil
}

// checkTable guards the methods that interpolate a TableName.
func checkTable(t TableName) error {
	if t.IsZero() {
		return &InvalidIdentifierError{Name: t.name}
	}
	return nil
}
