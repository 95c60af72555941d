package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/rankboard/internal/dataset"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindCategorical Kind = "categorical"
	KindText        Kind = "text"
	KindUnknown     Kind = "unknown"
)

// Options controls profiling behavior.
type Options struct {
	// SampleRows determines how many leading rows to include in the report.
	SampleRows int
	// Number pins decimal/thousands separators; zero values auto-detect per cell.
	Number dataset.NumberFormat
	// Outliers counts robust Z-scores (MAD) above OutlierThreshold.
	Outliers         bool
	OutlierThreshold float64
	// TopValues caps the categorical top-value list.
	TopValues int

	// Roles maps column names to their keyword role ("region", "category").
	Roles map[string]string
	// Label is the column rankings are labelled by.
	Label string
	// Rankable lists the columns offered for ranking. Nil means every
	// numeric column other than Label.
	Rankable []string
	// Mode is the ranking mode applied to the first rankable column.
	Mode string
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Outliers:         true,
		OutlierThreshold: 3.5,
		TopValues:        8,
	}
}

// Report is a markdown-friendly profile of a loaded table.
type Report struct {
	Name     string
	Encoding string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string

	Label    string
	Rankable []string
	Mode     string
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    Kind
	Role    string
	Unit    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	Sum  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// Profile infers a kind and summary statistics for every column of t.
func Profile(t *dataset.Table, opt Options) (*Report, error) {
	rep := &Report{Name: t.Name, Encoding: t.Encoding, Rows: t.Len(), Label: opt.Label, Mode: opt.Mode}
	if t.Truncated > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("kept %d rows, dropped %d due to MaxRows", t.Len(), t.Truncated))
	}
	for _, name := range t.Columns() {
		cells, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		s := summarize(name, cells, opt)
		s.Role = opt.Roles[name]
		rep.Cols = append(rep.Cols, s)
	}
	if opt.Rankable != nil {
		rep.Rankable = append([]string(nil), opt.Rankable...)
	} else {
		for _, c := range rep.ColumnsOfKind(KindNumeric) {
			if c != opt.Label {
				rep.Rankable = append(rep.Rankable, c)
			}
		}
	}
	if opt.SampleRows > 0 {
		head, err := t.Head(opt.SampleRows)
		if err != nil {
			return nil, err
		}
		rep.Samples = head[1:]
	}
	return rep, nil
}

func summarize(name string, cells []string, opt Options) ColumnSummary {
	_, unit := splitUnits(name)
	s := ColumnSummary{Name: name, Unit: unit}

	var (
		n, numCnt, dtCnt, txtCnt int
		mean, m2                 float64
		lo, hi                   = math.Inf(1), math.Inf(-1)
		nums                     []float64
		cats                     = map[string]int{}
		order                    []string
	)
	for _, raw := range cells {
		v := strings.TrimSpace(raw)
		if v == "" {
			s.Missing++
			continue
		}
		s.NonNull++
		if strings.Contains(v, "%") && s.Unit == "" {
			s.Unit = "%"
		}
		if x, ok := dataset.ParseNumber(v, opt.Number); ok {
			numCnt++
			n++
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
			// Welford update
			delta := x - mean
			mean += delta / float64(n)
			m2 += delta * (x - mean)
			s.Sum += x
			nums = append(nums, x)
			continue
		}
		if _, ok := parseTimeMaybe(v); ok {
			dtCnt++
			continue
		}
		txtCnt++
		if len(v) <= 64 {
			if _, seen := cats[v]; !seen {
				order = append(order, v)
			}
			cats[v]++
		}
		if len(s.ExampleTexts) < 3 {
			s.ExampleTexts = append(s.ExampleTexts, v)
		}
	}

	switch {
	case numCnt > 0 && numCnt >= dtCnt && numCnt >= txtCnt:
		s.Kind = KindNumeric
		s.Min, s.Max, s.Mean = lo, hi, mean
		if n > 1 {
			s.Std = math.Sqrt(m2 / float64(n-1))
		}
		s.ExampleTexts = nil
		if opt.Outliers && len(nums) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(nums, thr)
			s.OutlierThreshold = thr
		}
	case dtCnt > 0 && dtCnt >= txtCnt:
		s.Kind = KindDatetime
		s.ExampleTexts = nil
	case len(cats) > 0 && len(cats) < s.NonNull:
		s.Kind = KindCategorical
		s.Unique = len(cats)
		s.TopValues = topValues(cats, order, opt.TopValues)
		s.ExampleTexts = nil
	case txtCnt > 0:
		// every value distinct: a label column such as a country name
		s.Kind = KindText
		s.Unique = len(cats)
	default:
		s.Kind = KindUnknown
	}
	return s
}

// topValues sorts by count descending; equal counts keep first-seen order.
func topValues(cats map[string]int, order []string, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(order))
	for _, v := range order {
		tops = append(tops, CategoryCount{Value: v, Count: cats[v]})
	}
	sort.SliceStable(tops, func(i, j int) bool { return tops[i].Count > tops[j].Count })
	if limit > 0 && len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// ColumnsOfKind returns the names of columns inferred as k, in column order.
func (r *Report) ColumnsOfKind(k Kind) []string {
	var out []string
	for _, c := range r.Cols {
		if c.Kind == k {
			out = append(out, c.Name)
		}
	}
	return out
}

// Column returns the summary for name.
func (r *Report) Column(name string) (ColumnSummary, bool) {
	for _, c := range r.Cols {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`),  // Alpha (%)
	regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), // Mass [mg/L]
	regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|%|ppm|ppb|km²|명|원)$`),
}

func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, re := range unitPatterns {
		if m := re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[2])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}

// robustOutliers counts values whose MAD-based |z| exceeds thr.
func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		maxAbsZ = math.Max(maxAbsZ, az)
	}
	return count, maxAbsZ
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	return median, quantile(dev, 0.5)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
