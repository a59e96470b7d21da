// Package browse is a paging terminal viewer for one table.
package browse

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sidekick-universe/sidekick/internal/explorer"
)

const (
	maxColumnWidth = 30
	minColumnWidth = 4
	// chromeLines is the space taken by the title and footer.
	chromeLines = 4
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Model is the bubbletea model of the browser.
type Model struct {
	title    string
	result   *explorer.QueryResult
	pageSize int
	page     explorer.ResultPage
	table    table.Model
}

// New builds a browser over res showing pageSize rows per page.
func New(title string, res *explorer.QueryResult, pageSize int) Model {
	if pageSize <= 0 {
		pageSize = 1
	}

	cols := columnsFor(res)
	width := 0
	for _, c := range cols {
		width += c.Width + 2
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithWidth(width),
		table.WithFocused(true),
		table.WithHeight(min(pageSize, 20)+1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	t.SetStyles(styles)

	m := Model{
		title:    title,
		result:   res,
		pageSize: pageSize,
		table:    t,
	}
	m.goTo(0)
	return m
}

// Page returns the page on display.
func (m Model) Page() explorer.ResultPage {
	return m.page
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "n", "right", "pgdown", " ":
			m.goTo(m.page.Index + 1)
			return m, nil
		case "p", "left", "pgup":
			m.goTo(m.page.Index - 1)
			return m, nil
		case "g", "home":
			m.goTo(0)
			return m, nil
		case "G", "end":
			m.goTo(m.page.PageCount() - 1)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-chromeLines, 2))
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(m.footer()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) footer() string {
	first, last := 0, 0
	if n := len(m.page.Rows); n > 0 {
		first = m.page.Index*m.pageSize + 1
		last = first + n - 1
	}
	s := fmt.Sprintf("Page %d/%d · rows %d-%d of %d · n/p page · g/G first/last · q quit",
		m.page.Index+1, m.page.PageCount(), first, last, m.page.Total)
	if m.result != nil && m.result.Truncated {
		s += " · row limit reached"
	}
	return s
}

// goTo shows page index, clamped to the available pages.
func (m *Model) goTo(index int) {
	m.page = explorer.PageAt(m.result, index, m.pageSize)

	rows := make([]table.Row, len(m.page.Rows))
	for i, r := range m.page.Rows {
		row := make(table.Row, len(r))
		for j, v := range r {
			row[j] = cell(v)
		}
		rows[i] = row
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// columnsFor sizes each column to its widest header or value.
func columnsFor(res *explorer.QueryResult) []table.Column {
	if res == nil {
		return nil
	}
	cols := make([]table.Column, len(res.Columns))
	for i, name := range res.Columns {
		w := max(len(name), minColumnWidth)
		for _, r := range res.Rows {
			w = max(w, len(cell(r[i])))
		}
		cols[i] = table.Column{Title: name, Width: min(w, maxColumnWidth)}
	}
	return cols
}

func cell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return strings.ReplaceAll(fmt.Sprintf("%v", val), "\n", " ")
	}
}

// Run loads every row of t and browses it until the user quits.
func Run(ctx context.Context, exp *explorer.Explorer, t explorer.TableName, pageSize int, in io.Reader, out io.Writer) error {
	res, err := exp.SelectAll(ctx, t)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		New(t.String(), res, pageSize),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
