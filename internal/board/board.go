// Package board binds a loaded table to one dashboard view: it detects the
// label and option columns, ranks the selected column and prepares the chart
// and preview.
package board

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/KaramelBytes/rankboard/internal/chart"
	"github.com/KaramelBytes/rankboard/internal/classify"
	"github.com/KaramelBytes/rankboard/internal/dataset"
	"github.com/KaramelBytes/rankboard/internal/rank"
)

// DefaultTopN is the number of bars shown when a request does not say.
const DefaultTopN = 10

var (
	// ErrNoRoleColumns means no column matched a region or category keyword
	// and no label column was configured.
	ErrNoRoleColumns = errors.New("no region or category column found")
	// ErrUnknownColumn means a requested column is not in the table.
	ErrUnknownColumn = dataset.ErrUnknownColumn
	// ErrNoOptions means the table has no column that can be ranked.
	ErrNoOptions = errors.New("no rankable columns")
)

// Options are the per-deployment settings for building views.
type Options struct {
	Rules []classify.Rule
	// LabelColumn overrides label detection.
	LabelColumn string
	// TopN is used when a request leaves N at zero.
	TopN   int
	Agg    rank.Agg
	Number dataset.NumberFormat
	Chart  chart.Options
}

// DefaultOptions uses the built-in keyword rules and a top 10.
func DefaultOptions() Options {
	return Options{
		Rules: classify.DefaultRules(),
		TopN:  DefaultTopN,
		Agg:   rank.AggSum,
		Chart: chart.DefaultOptions(),
	}
}

// Request is one user selection.
type Request struct {
	Column string
	Label  string
	Mode   rank.Mode
	Agg    rank.Agg
	N      int
}

// View is everything the dashboard renders for one selection.
type View struct {
	Dataset  string                     `json:"dataset"`
	Encoding string                     `json:"encoding"`
	Rows     int                        `json:"rows"`
	Label    string                     `json:"label"`
	Options  []string                   `json:"options"`
	Column   string                     `json:"column"`
	Mode     rank.Mode                  `json:"mode"`
	N        int                        `json:"n"`
	Title    string                     `json:"title"`
	Ranking  *rank.Ranking              `json:"-"`
	Spec     chart.Spec                 `json:"spec"`
	Preview  [][]string                 `json:"preview"`
	Roles    map[classify.Role][]string `json:"roles"`
	Numeric  []string                   `json:"numeric"`
}

// Build resolves req against t and computes the ranking, chart spec and
// preview rows.
func Build(t *dataset.Table, req Request, opt Options) (*View, error) {
	if len(opt.Rules) == 0 {
		opt.Rules = classify.DefaultRules()
	}
	cols := t.Columns()
	buckets := classify.Classify(cols, opt.Rules)
	numeric, err := classify.NumericColumns(t, opt.Number)
	if err != nil {
		return nil, err
	}

	label, err := pickLabel(t, buckets, req.Label, opt.LabelColumn)
	if err != nil {
		return nil, err
	}
	options := optionColumns(label, numeric, buckets)
	if len(options) == 0 {
		return nil, ErrNoOptions
	}

	column := req.Column
	if column == "" {
		column = options[0]
	} else if !t.HasColumn(column) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}

	n := req.N
	if n == 0 {
		n = opt.TopN
	}
	if n == 0 {
		n = DefaultTopN
	}
	agg := req.Agg
	if agg == "" {
		agg = opt.Agg
	}

	mode := req.Mode
	if mode == "" {
		mode, err = autoMode(t, label, column, numeric)
		if err != nil {
			return nil, err
		}
	}

	var r *rank.Ranking
	switch mode {
	case rank.ModeTop:
		r, err = rank.TopN(t, label, column, n, opt.Number)
	case rank.ModeGroup:
		r, err = rank.Aggregate(t, label, column, agg, n, opt.Number)
	case rank.ModeCount:
		r, err = rank.ValueCounts(t, column, n)
	default:
		err = fmt.Errorf("unsupported mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	v := &View{
		Dataset:  t.Name,
		Encoding: t.Encoding,
		Rows:     t.Len(),
		Label:    label,
		Options:  options,
		Column:   column,
		Mode:     mode,
		N:        n,
		Title:    title(r, len(r.Entries)),
		Ranking:  r,
		Numeric:  numeric,
		Roles:    map[classify.Role][]string{},
	}
	for _, role := range buckets.Roles() {
		v.Roles[role] = buckets.Columns(role)
	}
	copt := opt.Chart
	copt.Title = v.Title
	v.Spec = chart.BarSpec(r, copt)
	v.Preview, err = preview(t, r)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func pickLabel(t *dataset.Table, b classify.Buckets, requested, configured string) (string, error) {
	for _, c := range []string{requested, configured} {
		if c == "" {
			continue
		}
		if !t.HasColumn(c) {
			return "", fmt.Errorf("%w: label %q", ErrUnknownColumn, c)
		}
		return c, nil
	}
	if c, ok := b.First(classify.RoleRegion); ok {
		return c, nil
	}
	if c, ok := b.First(classify.RoleCategory); ok {
		return c, nil
	}
	return "", ErrNoRoleColumns
}

// optionColumns lists the numeric columns other than the label, falling back
// to the category columns.
func optionColumns(label string, numeric []string, b classify.Buckets) []string {
	var out []string
	for _, c := range numeric {
		if c != label {
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		return out
	}
	return b.Columns(classify.RoleCategory)
}

func autoMode(t *dataset.Table, label, column string, numeric []string) (rank.Mode, error) {
	isNumeric := false
	for _, c := range numeric {
		if c == column {
			isNumeric = true
			break
		}
	}
	if !isNumeric {
		return rank.ModeCount, nil
	}
	labels, err := t.Column(label)
	if err != nil {
		return "", err
	}
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, dup := seen[l]; dup {
			return rank.ModeGroup, nil
		}
		seen[l] = struct{}{}
	}
	return rank.ModeTop, nil
}

func title(r *rank.Ranking, n int) string {
	switch r.Mode {
	case rank.ModeCount:
		return fmt.Sprintf("Most frequent %s TOP %d", r.ValueColumn, n)
	case rank.ModeGroup:
		return fmt.Sprintf("%s by %s TOP %d", r.ValueTitle(), r.LabelColumn, n)
	}
	return fmt.Sprintf("%s with the highest %s TOP %d", r.LabelColumn, r.ValueColumn, n)
}

// preview returns the rows behind the chart, header first. Top-N views show
// the source rows; count and group views show the ranking itself.
func preview(t *dataset.Table, r *rank.Ranking) ([][]string, error) {
	if r.Mode == rank.ModeTop {
		return t.Rows(r.Rows(), []string{r.LabelColumn, r.ValueColumn})
	}
	out := [][]string{{r.LabelColumn, r.ValueTitle()}}
	for _, e := range r.Entries {
		out = append(out, []string{e.Label, strconv.FormatFloat(e.Value, 'f', -1, 64)})
	}
	return out, nil
}
