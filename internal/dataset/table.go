package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Table is an immutable in-memory dataset: named columns of string cells.
// Cells are stored in a gota DataFrame with every column typed as string so
// numeric interpretation stays under ParseNumber's locale rules. Only the
// empty cell means missing; text such as "NA" is kept as written.
type Table struct {
	// Name is the display name of the source, usually the file base name.
	Name string
	// Encoding is the text encoding the source decoded with ("xlsx" for workbooks).
	Encoding string
	// Identity is the content hash of the raw source bytes.
	Identity string
	// Truncated counts data rows dropped by Options.MaxRows.
	Truncated int

	columns []string
	index   map[string]int
	rows    int
	frame   dataframe.DataFrame
}

// NewTable builds a table from records whose first row is the header.
// Short rows are padded with empty cells and long rows are cut to the header width.
func NewTable(name string, records [][]string) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmpty
	}
	header := uniqueHeader(records[0])
	t := &Table{
		Name:    name,
		columns: header,
		index:   make(map[string]int, len(header)),
		rows:    len(records) - 1,
	}
	for i, c := range header {
		t.index[c] = i
	}
	if t.rows == 0 {
		return t, nil
	}
	norm := make([][]string, 0, len(records))
	norm = append(norm, header)
	for _, rec := range records[1:] {
		row := make([]string, len(header))
		copy(row, rec)
		for j := range row {
			row[j] = strings.TrimSpace(row[j])
		}
		norm = append(norm, row)
	}
	t.frame = dataframe.LoadRecords(norm,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if t.frame.Err != nil {
		return nil, fmt.Errorf("build table: %w", t.frame.Err)
	}
	return t, nil
}

// uniqueHeader trims names, names blank columns by position and suffixes
// repeats as name.1, name.2, ...
func uniqueHeader(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		cand := name
		for n := 1; seen[cand]; n++ {
			cand = name + "." + strconv.Itoa(n)
		}
		seen[cand] = true
		out[i] = cand
	}
	return out
}

// Columns returns the column names in file order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int { return t.rows }

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the cells of one column in row order, exactly as loaded.
func (t *Table) Column(name string) ([]string, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if t.rows == 0 {
		return []string{}, nil
	}
	return t.frame.Col(name).Records(), nil
}

// Rows returns the header plus the given rows restricted to cols, in the
// order the indexes are listed. A nil cols selects every column.
func (t *Table) Rows(idx []int, cols []string) ([][]string, error) {
	if cols == nil {
		cols = t.Columns()
	}
	for _, c := range cols {
		if !t.HasColumn(c) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}
	header := make([]string, len(cols))
	copy(header, cols)
	out := [][]string{header}
	if len(idx) == 0 || len(cols) == 0 {
		return out, nil
	}
	for _, i := range idx {
		if i < 0 || i >= t.rows {
			return nil, fmt.Errorf("row %d out of range [0,%d)", i, t.rows)
		}
	}
	sub := t.frame.Subset(idx).Select(cols)
	if sub.Err != nil {
		return nil, fmt.Errorf("select rows: %w", sub.Err)
	}
	recs := sub.Records()
	out = append(out, recs[1:]...)
	return out, nil
}

// Head returns the header plus the first n rows of every column.
func (t *Table) Head(n int) ([][]string, error) {
	n = min(max(n, 0), t.rows)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.Rows(idx, nil)
}
