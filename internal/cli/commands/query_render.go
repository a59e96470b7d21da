package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/sidekick-universe/sidekick/internal/explorer"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// maxCellWidth is the column width at which table cells are folded.
const maxCellWidth = 60

// nullText is the NULL marker for machine formats.
const nullText = "NULL"

// resultView carries the display settings for one render.
type resultView struct {
	format   string
	pageSize int
	// null is the NULL marker for the table format; it may be styled.
	null string
	// warn receives notices that must not mix with machine output.
	warn io.Writer
}

// renderResult writes a query outcome. Non-tabular results print the
// affected-rows message. The machine formats (json, yaml, csv) carry every
// fetched row; the display formats are paginated to the page size.
func renderResult(w io.Writer, res *explorer.QueryResult, v resultView) error {
	if !res.Tabular {
		_, _ = fmt.Fprintln(w, res.Message())
		return nil
	}

	switch v.format {
	case "json", "yaml", "csv":
		if res.Truncated && v.warn != nil {
			_, _ = fmt.Fprintf(v.warn, "Warning: row limit reached, output holds the first %d rows\n", len(res.Rows))
		}
		all := explorer.Paginate(res, len(res.Rows))
		switch v.format {
		case "json":
			return renderJSON(w, pageRecords(all))
		case "yaml":
			return renderYAML(w, all)
		default:
			t := newResultTable(all, nullText)
			_, _ = fmt.Fprintln(w, t.RenderCSV())
			return nil
		}
	}

	page := explorer.Paginate(res, v.pageSize)

	switch v.format {
	case "md", "markdown":
		t := newResultTable(page, nullText)
		_, _ = fmt.Fprintln(w, t.RenderMarkdown())
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, pageFooter(page, res.Truncated))
		return nil
	default:
		null := v.null
		if null == "" {
			null = nullText
		}
		t := newResultTable(page, null)
		t.SetStyle(table.StyleRounded)
		configs := make([]table.ColumnConfig, len(page.Columns))
		for i := range page.Columns {
			configs[i] = table.ColumnConfig{
				Number:           i + 1,
				WidthMax:         maxCellWidth,
				WidthMaxEnforcer: text.WrapSoft,
			}
		}
		t.SetColumnConfigs(configs)
		_, _ = fmt.Fprintln(w, t.Render())
		_, _ = fmt.Fprintln(w, pageFooter(page, res.Truncated))
		return nil
	}
}

func newResultTable(page explorer.ResultPage, null string) table.Writer {
	t := table.NewWriter()

	header := make(table.Row, len(page.Columns))
	for i, col := range page.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, r := range page.Rows {
		row := make(table.Row, len(r))
		for i, val := range r {
			if val == nil {
				row[i] = null
				continue
			}
			row[i] = formatValue(val)
		}
		t.AppendRow(row)
	}
	return t
}

// pageFooter reports the row count, noting when the page or the fetch
// was cut short.
func pageFooter(page explorer.ResultPage, capped bool) string {
	var s string
	if page.Truncated {
		s = fmt.Sprintf("Showing %d of %d rows", len(page.Rows), page.Total)
	} else {
		s = fmt.Sprintf("Total rows: %d", page.Total)
	}
	if capped {
		s += " (row limit reached)"
	}
	return s
}

// pageRecords converts page rows into column-keyed records.
func pageRecords(page explorer.ResultPage) []map[string]any {
	keys := uniqueKeys(page.Columns)
	records := make([]map[string]any, 0, len(page.Rows))
	for _, r := range page.Rows {
		rec := make(map[string]any, len(keys))
		for i, key := range keys {
			rec[key] = r[i]
		}
		records = append(records, rec)
	}
	return records
}

// uniqueKeys returns record keys for columns. Repeated names, as a join
// of two id columns produces, get a numeric suffix: id, id_2.
func uniqueKeys(columns []string) []string {
	taken := make(map[string]bool, len(columns))
	for _, c := range columns {
		taken[c] = true
	}

	keys := make([]string, len(columns))
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		if !seen[c] {
			seen[c] = true
			keys[i] = c
			continue
		}
		for n := 2; ; n++ {
			key := c + "_" + strconv.Itoa(n)
			if !taken[key] {
				taken[key] = true
				keys[i] = key
				break
			}
		}
	}
	return keys
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderYAML writes one mapping per row, keeping column order.
func renderYAML(w io.Writer, page explorer.ResultPage) error {
	keys := uniqueKeys(page.Columns)
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range page.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for i, col := range keys {
			key := &yaml.Node{Kind: yaml.ScalarNode, Value: col}
			val := &yaml.Node{}
			if err := val.Encode(r[i]); err != nil {
				return fmt.Errorf("encode %s: %w", col, err)
			}
			m.Content = append(m.Content, key, val)
		}
		seq.Content = append(seq.Content, m)
	}
	return encodeYAML(w, seq)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return nullText
	case []byte:
		return string(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// tableCount is one entry of a table listing.
type tableCount struct {
	Name string `json:"name" yaml:"name"`
	Rows int64  `json:"rows" yaml:"rows"`
}

// renderTableList writes table names with right-aligned row counts.
func renderTableList(w io.Writer, format string, tables []tableCount) error {
	switch format {
	case "json":
		return renderJSON(w, tables)
	case "yaml":
		return encodeYAML(w, tables)
	}

	p := message.NewPrinter(language.English)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Table", "Rows"})
	for _, tc := range tables {
		t.AppendRow(table.Row{tc.Name, p.Sprintf("%d", tc.Rows)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})

	switch format {
	case "csv":
		_, _ = fmt.Fprintln(w, t.RenderCSV())
	case "md", "markdown":
		_, _ = fmt.Fprintln(w, t.RenderMarkdown())
	default:
		t.SetStyle(table.StyleRounded)
		_, _ = fmt.Fprintln(w, t.Render())
	}
	return nil
}

// renderSchema writes table descriptions as a tree, or as data for the
// machine formats.
func renderSchema(w io.Writer, format string, schemas []explorer.TableSchema) error {
	switch format {
	case "json":
		return renderJSON(w, schemas)
	case "yaml":
		return encodeYAML(w, schemas)
	case "csv":
		t := table.NewWriter()
		t.AppendHeader(table.Row{"table", "column", "type", "not_null", "pk"})
		for _, s := range schemas {
			for _, c := range s.Columns {
				t.AppendRow(table.Row{s.Name, c.Name, c.Type, c.NotNull, c.PK > 0})
			}
		}
		_, _ = fmt.Fprintln(w, t.RenderCSV())
		return nil
	}

	l := schemaTree(schemas)
	if format == "md" || format == "markdown" {
		_, _ = fmt.Fprintln(w, l.RenderMarkdown())
		return nil
	}
	l.SetStyle(list.StyleConnectedRounded)
	_, _ = fmt.Fprintln(w, l.Render())
	return nil
}

func schemaTree(schemas []explorer.TableSchema) list.Writer {
	p := message.NewPrinter(language.English)

	l := list.NewWriter()
	for _, s := range schemas {
		l.AppendItem(p.Sprintf("%s (%d rows)", s.Name, s.RowCount))
		l.Indent()
		for _, c := range s.Columns {
			l.AppendItem(describeColumn(c))
		}
		for _, idx := range s.Indexes {
			l.AppendItem("index " + idx)
		}
		l.UnIndent()
	}
	return l
}

func describeColumn(c explorer.Column) string {
	s := c.Name
	if c.Type != "" {
		s += " " + c.Type
	}
	if c.NotNull {
		s += " NOT NULL"
	}
	if c.Default != nil {
		s += " DEFAULT " + *c.Default
	}
	if c.PK > 0 {
		s += " PK"
	}
	return s
}
