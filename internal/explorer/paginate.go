package explorer

// ResultPage is a bounded, display-only view over a QueryResult. Its Rows
// share storage with the result.
type ResultPage struct {
	Columns []string
	Rows    [][]any
	// Index is the zero-based page number.
	Index int
	// Size is the page ceiling the page was cut with.
	Size int
	// Total is the number of rows in the underlying result.
	Total int
	// Truncated is true when rows exist after this page.
	Truncated bool
}

// Paginate returns the first page of at most ceiling rows.
func Paginate(r *QueryResult, ceiling int) ResultPage {
	return PageAt(r, 0, ceiling)
}

// PageAt returns the index-th page of size rows. The index is clamped to
// the available pages; a non-positive size yields an empty page.
func PageAt(r *QueryResult, index, size int) ResultPage {
	if r == nil {
		return ResultPage{}
	}

	total := len(r.Rows)
	page := ResultPage{
		Columns: r.Columns,
		Total:   total,
	}

	if size <= 0 {
		page.Truncated = total > 0
		return page
	}
	page.Size = size

	last := 0
	if total > 0 {
		last = (total - 1) / size
	}
	if index < 0 {
		index = 0
	}
	if index > last {
		index = last
	}
	page.Index = index

	start := index * size
	end := min(start+size, total)
	page.Rows = r.Rows[start:end]
	page.Truncated = end < total
	return page
}

// PageCount is the number of pages the underlying result spans.
func (p ResultPage) PageCount() int {
	if p.Size <= 0 {
		return 0
	}
	if p.Total == 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

// HasPrev reports whether a page precedes this one.
func (p ResultPage) HasPrev() bool {
	return p.Index > 0
}
