package explorer

import (
	"context"
	"database/sql"
	"fmt"
)

// Column describes one row of PRAGMA table_info.
type Column struct {
	CID     int     `json:"cid" yaml:"cid"`
	Name    string  `json:"name" yaml:"name"`
	Type    string  `json:"type" yaml:"type"`
	NotNull bool    `json:"not_null" yaml:"not_null"`
	Default *string `json:"default,omitempty" yaml:"default,omitempty"`
	// PK is the 1-based position in the primary key, or 0.
	PK int `json:"pk" yaml:"pk"`
}

// TableSchema is the description of one table.
type TableSchema struct {
	Name     string   `json:"name" yaml:"name"`
	RowCount int64    `json:"row_count" yaml:"row_count"`
	Columns  []Column `json:"columns" yaml:"columns"`
	Indexes  []string `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

// Tables lists user tables ordered by name.
func (e *Explorer) Tables(ctx context.Context) ([]string, error) {
	const q = `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		ORDER BY name`

	rows, err := e.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, &QueryError{SQL: q, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &QueryError{SQL: q, Err: err}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{SQL: q, Err: err}
	}
	return names, nil
}

// TableInfo returns the columns of a validated table.
func (e *Explorer) TableInfo(ctx context.Context, t TableName) ([]Column, error) {
	if err := checkTable(t); err != nil {
		return nil, err
	}

	q := fmt.Sprintf("PRAGMA table_info(%s)", t.Quoted())
	rows, err := e.conn.QueryContext(ctx, q)
	if err != nil {
		return nil, &QueryError{SQL: q, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var cols []Column
	for rows.Next() {
		var (
			c       Column
			notNull int
			dflt    sql.NullString
		)
		if err := rows.Scan(&c.CID, &c.Name, &c.Type, &notNull, &dflt, &c.PK); err != nil {
			return nil, &QueryError{SQL: q, Err: err}
		}
		c.NotNull = notNull != 0
		if dflt.Valid {
			v := dflt.String
			c.Default = &v
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{SQL: q, Err: err}
	}
	return cols, nil
}

// CountRows returns SELECT COUNT(*) for a validated table.
func (e *Explorer) CountRows(ctx context.Context, t TableName) (int64, error) {
	if err := checkTable(t); err != nil {
		return 0, err
	}

	q := "SELECT COUNT(*) FROM " + t.Quoted()
	var n int64
	if err := e.conn.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, &QueryError{SQL: q, Err: err}
	}
	return n, nil
}

// Indexes lists the named indexes of a validated table.
func (e *Explorer) Indexes(ctx context.Context, t TableName) ([]string, error) {
	if err := checkTable(t); err != nil {
		return nil, err
	}

	const q = `SELECT name FROM sqlite_master
		WHERE type = 'index' AND tbl_name = ? AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		ORDER BY name`

	rows, err := e.conn.QueryContext(ctx, q, t.String())
	if err != nil {
		return nil, &QueryError{SQL: q, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &QueryError{SQL: q, Err: err}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{SQL: q, Err: err}
	}
	return names, nil
}

// SelectAll runs SELECT * over a validated table, subject to the row cap.
func (e *Explorer) SelectAll(ctx context.Context, t TableName) (*QueryResult, error) {
	if err := checkTable(t); err != nil {
		return nil, err
	}
	return e.Execute(ctx, "SELECT * FROM "+t.Quoted())
}

// DescribeTable collects row count, columns and indexes for one table.
func (e *Explorer) DescribeTable(ctx context.Context, t TableName) (*TableSchema, error) {
	count, err := e.CountRows(ctx, t)
	if err != nil {
		return nil, err
	}
	cols, err := e.TableInfo(ctx, t)
	if err != nil {
		return nil, err
	}
	idx, err := e.Indexes(ctx, t)
	if err != nil {
		return nil, err
	}
	return &TableSchema{
		Name:     t.String(),
		RowCount: count,
		Columns:  cols,
		Indexes:  idx,
	}, nil
}

// Schema describes every user table. Each name read from the catalog
// still goes through ValidateTable before use.
func (e *Explorer) Schema(ctx context.Context) ([]TableSchema, error) {
	names, err := e.Tables(ctx)
	if err != nil {
		return nil, err
	}

	schemas := make([]TableSchema, 0, len(names))
	for _, name := range names {
		t, err := e.ValidateTable(ctx, name)
		if err != nil {
			return nil, err
		}
		s, err := e.DescribeTable(ctx, t)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, *s)
	}
	return schemas, nil
}
