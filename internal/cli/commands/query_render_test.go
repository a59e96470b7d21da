package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidekick-universe/sidekick/internal/explorer"
)

func TestRenderResult_NonTabular(t *testing.T) {
	var buf bytes.Buffer
	err := renderResult(&buf, &explorer.QueryResult{RowsAffected: 4}, resultView{format: "table", pageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, "Query executed successfully. Rows affected: 4\n", buf.String())
}

func TestRenderResult_EmptyTabular(t *testing.T) {
	var buf bytes.Buffer
	res := &explorer.QueryResult{Columns: []string{"id"}, Tabular: true}

	require.NoError(t, renderResult(&buf, res, resultView{format: "table", pageSize: 10}))
	assert.Contains(t, buf.String(), "Total rows: 0")
}

func TestPageFooter(t *testing.T) {
	res := &explorer.QueryResult{Columns: []string{"n"}, Rows: [][]any{{1}, {2}, {3}}, Tabular: true}

	assert.Equal(t, "Total rows: 3", pageFooter(explorer.Paginate(res, 5), false))
	assert.Equal(t, "Showing 2 of 3 rows", pageFooter(explorer.Paginate(res, 2), false))
	assert.Equal(t, "Total rows: 3 (row limit reached)", pageFooter(explorer.Paginate(res, 5), true))
}

func TestRenderResult_LongValuesFold(t *testing.T) {
	var buf bytes.Buffer
	long := "word "
	for len(long) < 3*maxCellWidth {
		long += "word "
	}
	res := &explorer.QueryResult{Columns: []string{"text"}, Rows: [][]any{{long}}, Tabular: true}

	require.NoError(t, renderResult(&buf, res, resultView{format: "table", pageSize: 10}))
	for _, line := range bytes.Split(buf.Bytes(), []byte("\n")) {
		assert.LessOrEqual(t, len([]rune(string(line))), maxCellWidth+4)
	}
}

func TestUniqueKeys(t *testing.T) {
	assert.Equal(t, []string{"id", "name"}, uniqueKeys([]string{"id", "name"}))
	assert.Equal(t, []string{"id", "id_2", "id_3"}, uniqueKeys([]string{"id", "id", "id"}))
	assert.Equal(t, []string{"id", "id_2", "id_3"}, uniqueKeys([]string{"id", "id_2", "id"}))
	assert.Equal(t, []string{"id", "id_3", "id_2"}, uniqueKeys([]string{"id", "id", "id_2"}))
}

func TestRenderYAML_DuplicateColumns(t *testing.T) {
	var buf bytes.Buffer
	res := &explorer.QueryResult{Columns: []string{"id", "id"}, Rows: [][]any{{1, 2}}, Tabular: true}

	require.NoError(t, renderResult(&buf, res, resultView{format: "yaml", pageSize: 10}))
	assert.Contains(t, buf.String(), "id: 1")
	assert.Contains(t, buf.String(), "id_2: 2")
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "nil", in: nil, want: "NULL"},
		{name: "bytes", in: []byte("blob"), want: "blob"},
		{name: "float", in: 9.5, want: "9.5"},
		{name: "whole float", in: 3.0, want: "3"},
		{name: "int", in: int64(7), want: "7"},
		{name: "time", in: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), want: "2024-01-02T03:04:05Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.in))
		})
	}
}

func TestRenderTableList(t *testing.T) {
	tables := []tableCount{{Name: "events", Rows: 1234567}, {Name: "users", Rows: 3}}

	var buf bytes.Buffer
	require.NoError(t, renderTableList(&buf, "table", tables))
	assert.Contains(t, buf.String(), "1,234,567")
	assert.Contains(t, buf.String(), "users")

	buf.Reset()
	require.NoError(t, renderTableList(&buf, "json", tables))
	assert.JSONEq(t, `[{"name":"events","rows":1234567},{"name":"users","rows":3}]`, buf.String())
}

func TestRenderSchema(t *testing.T) {
	dflt := "0"
	schemas := []explorer.TableSchema{{
		Name:     "orders",
		RowCount: 2,
		Columns: []explorer.Column{
			{Name: "id", Type: "INTEGER", PK: 1},
			{Name: "total", Type: "REAL", NotNull: true, Default: &dflt},
		},
		Indexes: []string{"idx_orders_total"},
	}}

	var buf bytes.Buffer
	require.NoError(t, renderSchema(&buf, "table", schemas))
	out := buf.String()
	assert.Contains(t, out, "orders (2 rows)")
	assert.Contains(t, out, "id INTEGER PK")
	assert.Contains(t, out, "total REAL NOT NULL DEFAULT 0")
	assert.Contains(t, out, "index idx_orders_total")

	buf.Reset()
	require.NoError(t, renderSchema(&buf, "csv", schemas))
	assert.Contains(t, buf.String(), "orders,total,REAL,true,false")
}
