package explorer

import (
	"errors"
	"fmt"
)

// Sentinel errors for matching with errors.Is.
var (
	// ErrInvalidIdentifier is matched by every InvalidIdentifierError.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrQuery is matched by every QueryError.
	ErrQuery = errors.New("query error")
	// ErrConnection is matched by every ConnectionError.
	ErrConnection = errors.New("connection error")
)

// InvalidIdentifierError reports a table name that is not in the catalog.
// The operation that needed the name is aborted; the session is not.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("unknown table %q", e.Name)
}

// Is reports whether target is ErrInvalidIdentifier.
func (e *InvalidIdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}

// QueryError wraps an engine failure while executing caller-supplied SQL.
type QueryError struct {
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrQuery.
func (e *QueryError) Is(target error) bool {
	return target == ErrQuery
}

// ConnectionError reports a database file that is missing, unreadable or
// not a database. It is fatal to the session.
type ConnectionError struct {
	Path string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot open database %s: %v", e.Path, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConnection.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}
