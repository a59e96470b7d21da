package browse

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidekick-universe/sidekick/internal/explorer"
)

func resultOf(n int) *explorer.QueryResult {
	res := &explorer.QueryResult{Columns: []string{"id", "name"}, Tabular: true}
	for i := range n {
		res.Rows = append(res.Rows, []any{int64(i + 1), fmt.Sprintf("row-%d", i+1)})
	}
	return res
}

func press(t *testing.T, m Model, key string) Model {
	t.Helper()
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestModel_Paging(t *testing.T) {
	m := New("users", resultOf(25), 10)
	assert.Equal(t, 0, m.Page().Index)
	assert.Len(t, m.Page().Rows, 10)
	assert.True(t, m.Page().Truncated)

	m = press(t, m, "n")
	m = press(t, m, "n")
	assert.Equal(t, 2, m.Page().Index)
	assert.Len(t, m.Page().Rows, 5)
	assert.False(t, m.Page().Truncated)

	// Paging past the end stays on the last page.
	m = press(t, m, "n")
	assert.Equal(t, 2, m.Page().Index)

	m = press(t, m, "p")
	assert.Equal(t, 1, m.Page().Index)

	m = press(t, m, "g")
	assert.Equal(t, 0, m.Page().Index)

	m = press(t, m, "G")
	assert.Equal(t, 2, m.Page().Index)
}

func TestModel_Quit(t *testing.T) {
	m := New("users", resultOf(3), 10)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_View(t *testing.T) {
	m := New("users", resultOf(25), 10)
	m = press(t, m, "n")

	view := m.View()
	assert.Contains(t, view, "users")
	assert.Contains(t, view, "Page 2/3")
	assert.Contains(t, view, "rows 11-20 of 25")
	assert.Contains(t, view, "row-11")
}

func TestModel_Empty(t *testing.T) {
	m := New("empty", resultOf(0), 10)

	assert.Empty(t, m.Page().Rows)
	assert.Contains(t, m.View(), "Page 1/1")
	assert.Contains(t, m.View(), "rows 0-0 of 0")
}

func TestColumnsFor(t *testing.T) {
	res := &explorer.QueryResult{
		Columns: []string{"id", "bio"},
		Rows:    [][]any{{int64(1), string(make([]byte, 100))}, {int64(2), nil}},
	}

	cols := columnsFor(res)
	require.Len(t, cols, 2)
	assert.Equal(t, minColumnWidth, cols[0].Width)
	assert.Equal(t, maxColumnWidth, cols[1].Width)
}
