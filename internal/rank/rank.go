// Package rank computes the ordered views behind a bar chart: top rows by a
// numeric column, value frequencies, and per-group aggregates.
package rank

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/rankboard/internal/dataset"
)

// Mode selects how a ranking is computed.
type Mode string

const (
	ModeTop   Mode = "top"
	ModeCount Mode = "count"
	ModeGroup Mode = "group"
)

// ParseMode accepts a mode name; "" and "auto" return "".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return "", nil
	case "top", "nlargest":
		return ModeTop, nil
	case "count", "counts", "value-counts":
		return ModeCount, nil
	case "group", "sum", "aggregate":
		return ModeGroup, nil
	}
	return "", fmt.Errorf("unsupported mode %q (use top|count|group)", s)
}

// Agg is the per-group aggregate used by ModeGroup.
type Agg string

const (
	AggSum   Agg = "sum"
	AggMean  Agg = "mean"
	AggCount Agg = "count"
)

// Entry is one bar of a ranking.
type Entry struct {
	Label string
	Value float64
	// Missing marks a top-N row whose value cell was empty or non-numeric.
	Missing bool
	// Row is the source row index for ModeTop, or the first row of the group/value otherwise.
	Row int
}

// Ranking is an ordered view over one column of a table.
type Ranking struct {
	Mode        Mode
	Agg         Agg
	LabelColumn string
	ValueColumn string
	Entries     []Entry
	// Total is the number of candidates before truncation to N.
	Total int
}

// Rows returns the source row index of each entry.
func (r *Ranking) Rows() []int {
	out := make([]int, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Row
	}
	return out
}

// ValueTitle is the axis title for the value dimension.
func (r *Ranking) ValueTitle() string {
	switch r.Mode {
	case ModeCount:
		return "count"
	case ModeGroup:
		return fmt.Sprintf("%s(%s)", r.Agg, r.ValueColumn)
	}
	return r.ValueColumn
}

// TopN returns the n rows with the largest numeric value in the value column,
// labelled by the label column. Rows whose value is missing sort after every
// numeric row. Ties keep source row order. n <= 0 returns every row.
func TopN(t *dataset.Table, label, value string, n int, nf dataset.NumberFormat) (*Ranking, error) {
	labels, err := t.Column(label)
	if err != nil {
		return nil, err
	}
	values, err := t.Column(value)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(values))
	for i, raw := range values {
		x, ok := dataset.ParseNumber(raw, nf)
		entries[i] = Entry{Label: labels[i], Value: x, Missing: !ok, Row: i}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Missing != b.Missing {
			return !a.Missing
		}
		return a.Value > b.Value
	})
	return finish(&Ranking{Mode: ModeTop, LabelColumn: label, ValueColumn: value}, entries, n), nil
}

// ValueCounts returns the n most frequent non-empty values of column.
// Equal counts keep first-appearance order.
func ValueCounts(t *dataset.Table, column string, n int) (*Ranking, error) {
	cells, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	pos := map[string]int{}
	for i, v := range cells {
		if v == "" {
			continue
		}
		if j, ok := pos[v]; ok {
			entries[j].Value++
			continue
		}
		pos[v] = len(entries)
		entries = append(entries, Entry{Label: v, Value: 1, Row: i})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Value > entries[j].Value })
	r := &Ranking{Mode: ModeCount, Agg: AggCount, LabelColumn: column, ValueColumn: column}
	return finish(r, entries, n), nil
}

// Aggregate groups rows by the group column and reduces the numeric cells of
// the value column with agg. Groups with no numeric cell are dropped for sum
// and mean. Equal results keep first-appearance order.
func Aggregate(t *dataset.Table, group, value string, agg Agg, n int, nf dataset.NumberFormat) (*Ranking, error) {
	keys, err := t.Column(group)
	if err != nil {
		return nil, err
	}
	values, err := t.Column(value)
	if err != nil {
		return nil, err
	}
	if agg == "" {
		agg = AggSum
	}
	type acc struct {
		first      int
		sum        float64
		rows, nums int
	}
	var order []string
	groups := map[string]*acc{}
	for i, k := range keys {
		if k == "" {
			continue
		}
		g := groups[k]
		if g == nil {
			g = &acc{first: i}
			groups[k] = g
			order = append(order, k)
		}
		g.rows++
		if x, ok := dataset.ParseNumber(values[i], nf); ok {
			g.sum += x
			g.nums++
		}
	}
	entries := make([]Entry, 0, len(order))
	for _, k := range order {
		g := groups[k]
		e := Entry{Label: k, Row: g.first}
		switch agg {
		case AggCount:
			e.Value = float64(g.rows)
		case AggMean:
			if g.nums == 0 {
				continue
			}
			e.Value = g.sum / float64(g.nums)
		case AggSum:
			if g.nums == 0 {
				continue
			}
			e.Value = g.sum
		default:
			return nil, fmt.Errorf("unsupported aggregate %q", agg)
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Value > entries[j].Value })
	r := &Ranking{Mode: ModeGroup, Agg: agg, LabelColumn: group, ValueColumn: value}
	return finish(r, entries, n), nil
}

func finish(r *Ranking, entries []Entry, n int) *Ranking {
	r.Total = len(entries)
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	if entries == nil {
		entries = []Entry{}
	}
	r.Entries = entries
	return r
}
