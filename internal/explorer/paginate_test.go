package explorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func resultOf(n int) *QueryResult {
	r := &QueryResult{Columns: []string{"n"}, Tabular: true}
	for i := range n {
		r.Rows = append(r.Rows, []any{int64(i)})
	}
	return r
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		rows, ceiling int
		wantRows      int
		wantTruncated bool
	}{
		{rows: 0, ceiling: 10, wantRows: 0, wantTruncated: false},
		{rows: 5, ceiling: 10, wantRows: 5, wantTruncated: false},
		{rows: 10, ceiling: 10, wantRows: 10, wantTruncated: false},
		{rows: 11, ceiling: 10, wantRows: 10, wantTruncated: true},
		{rows: 100, ceiling: 1, wantRows: 1, wantTruncated: true},
		{rows: 3, ceiling: 0, wantRows: 0, wantTruncated: true},
		{rows: 0, ceiling: 0, wantRows: 0, wantTruncated: false},
		{rows: 3, ceiling: -4, wantRows: 0, wantTruncated: true},
	}

	for _, tt := range tests {
		page := Paginate(resultOf(tt.rows), tt.ceiling)
		assert.Len(t, page.Rows, tt.wantRows, "N=%d C=%d", tt.rows, tt.ceiling)
		assert.Equal(t, tt.wantTruncated, page.Truncated, "N=%d C=%d", tt.rows, tt.ceiling)
		assert.Equal(t, tt.rows, page.Total)
	}
}

func TestPaginate_Nil(t *testing.T) {
	page := Paginate(nil, 10)
	assert.Empty(t, page.Rows)
	assert.False(t, page.Truncated)
}

func TestPageAt(t *testing.T) {
	r := resultOf(25)

	first := PageAt(r, 0, 10)
	assert.Len(t, first.Rows, 10)
	assert.Equal(t, int64(0), first.Rows[0][0])
	assert.True(t, first.Truncated)
	assert.False(t, first.HasPrev())
	assert.Equal(t, 3, first.PageCount())

	last := PageAt(r, 2, 10)
	assert.Len(t, last.Rows, 5)
	assert.Equal(t, int64(20), last.Rows[0][0])
	assert.False(t, last.Truncated)
	assert.True(t, last.HasPrev())

	clamped := PageAt(r, 9, 10)
	assert.Equal(t, 2, clamped.Index)

	negative := PageAt(r, -3, 10)
	assert.Equal(t, 0, negative.Index)
}

func TestPageCount_Empty(t *testing.T) {
	assert.Equal(t, 1, PageAt(resultOf(0), 0, 10).PageCount())
	assert.Equal(t, 0, PageAt(resultOf(4), 0, 0).PageCount())
}
