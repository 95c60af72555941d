package rank

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"strconv"
	"testing"

	"github.com/KaramelBytes/rankboard/internal/dataset"
)

func table(t *testing.T, records ...[]string) *dataset.Table {
	t.Helper()
	tbl, err := dataset.NewTable("test.csv", records)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func labels(r *Ranking) []string {
	out := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Label
	}
	return out
}

func TestTopNSortsDescendingAndKeepsTiesStable(t *testing.T) {
	tbl := table(t,
		[]string{"Country", "INFP"},
		[]string{"Korea", "0.05"},
		[]string{"Japan", "0.09"},
		[]string{"Chile", "0.05"},
		[]string{"Peru", ""},
		[]string{"Spain", "0.07"},
		[]string{"Italy", "0.05"},
	)
	r, err := TopN(tbl, "Country", "INFP", 4, dataset.NumberFormat{})
	if err != nil {
		t.Fatalf("TopN: %v", err)
	}
	if got, want := labels(r), []string{"Japan", "Spain", "Korea", "Chile"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("labels = %#v, want %#v", got, want)
	}
	if r.Total != 6 || r.Mode != ModeTop || r.ValueTitle() != "INFP" {
		t.Fatalf("ranking = %+v", r)
	}
	if got := r.Rows(); !reflect.DeepEqual(got, []int{1, 4, 0, 2}) {
		t.Fatalf("rows = %#v", got)
	}
}

func TestTopNMissingValuesSortLast(t *testing.T) {
	tbl := table(t,
		[]string{"Country", "INFP"},
		[]string{"Peru", "n/a"},
		[]string{"Korea", "0.05"},
		[]string{"Chile", ""},
	)
	r, err := TopN(tbl, "Country", "INFP", 10, dataset.NumberFormat{})
	if err != nil {
		t.Fatalf("TopN: %v", err)
	}
	if got, want := labels(r), []string{"Korea", "Peru", "Chile"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("labels = %#v, want %#v", got, want)
	}
	if r.Entries[0].Missing || !r.Entries[1].Missing || !r.Entries[2].Missing {
		t.Fatalf("missing flags = %+v", r.Entries)
	}
}

func TestTopNLengthAndOrderProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		rows := rng.Intn(30)
		recs := [][]string{{"label", "value"}}
		for i := 0; i < rows; i++ {
			recs = append(recs, []string{fmt.Sprintf("r%d", i), strconv.Itoa(rng.Intn(5))})
		}
		tbl := table(t, recs...)
		n := rng.Intn(15)
		r, err := TopN(tbl, "label", "value", n, dataset.NumberFormat{})
		if err != nil {
			t.Fatalf("TopN: %v", err)
		}
		want := rows
		if n > 0 && n < rows {
			want = n
		}
		if len(r.Entries) != want {
			t.Fatalf("trial %d: got %d entries, want %d", trial, len(r.Entries), want)
		}
		for i := 1; i < len(r.Entries); i++ {
			a, b := r.Entries[i-1], r.Entries[i]
			if a.Value < b.Value {
				t.Fatalf("trial %d: not descending at %d: %+v", trial, i, r.Entries)
			}
			if a.Value == b.Value && a.Row > b.Row {
				t.Fatalf("trial %d: tie not stable at %d: %+v", trial, i, r.Entries)
			}
		}
	}
}

func TestTopNUnknownColumn(t *testing.T) {
	tbl := table(t, []string{"a", "b"}, []string{"x", "1"})
	if _, err := TopN(tbl, "a", "zzz", 3, dataset.NumberFormat{}); !errors.Is(err, dataset.ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
}

func TestValueCounts(t *testing.T) {
	tbl := table(t,
		[]string{"Subject"},
		[]string{"math"},
		[]string{"art"},
		[]string{""},
		[]string{"music"},
		[]string{"art"},
		[]string{"math"},
		[]string{"history"},
	)
	r, err := ValueCounts(tbl, "Subject", 3)
	if err != nil {
		t.Fatalf("ValueCounts: %v", err)
	}
	if got, want := labels(r), []string{"math", "art", "music"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("labels = %#v, want %#v", got, want)
	}
	if r.Entries[0].Value != 2 || r.Entries[2].Value != 1 || r.Total != 4 {
		t.Fatalf("entries = %+v total=%d", r.Entries, r.Total)
	}
	if r.ValueTitle() != "count" {
		t.Fatalf("title = %q", r.ValueTitle())
	}
}

func TestAggregate(t *testing.T) {
	tbl := table(t,
		[]string{"Region", "Sales"},
		[]string{"North", "10"},
		[]string{"South", "5"},
		[]string{"North", "2"},
		[]string{"East", "x"},
		[]string{"South", "7"},
		[]string{"West", "12"},
	)
	sum, err := Aggregate(tbl, "Region", "Sales", AggSum, 0, dataset.NumberFormat{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	// North and South tie at 12 with West; first appearance wins.
	if got, want := labels(sum), []string{"North", "South", "West"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("sum labels = %#v, want %#v", got, want)
	}
	if sum.ValueTitle() != "sum(Sales)" {
		t.Fatalf("title = %q", sum.ValueTitle())
	}

	mean, err := Aggregate(tbl, "Region", "Sales", AggMean, 2, dataset.NumberFormat{})
	if err != nil {
		t.Fatalf("Aggregate mean: %v", err)
	}
	if got, want := labels(mean), []string{"West", "North"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("mean labels = %#v, want %#v", got, want)
	}
	if mean.Entries[1].Value != 6 || mean.Total != 3 {
		t.Fatalf("mean entries = %+v", mean.Entries)
	}

	count, err := Aggregate(tbl, "Region", "Sales", AggCount, 0, dataset.NumberFormat{})
	if err != nil {
		t.Fatalf("Aggregate count: %v", err)
	}
	if got, want := labels(count), []string{"North", "South", "East", "West"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("count labels = %#v, want %#v", got, want)
	}

	if _, err := Aggregate(tbl, "Region", "Sales", Agg("median"), 0, dataset.NumberFormat{}); err == nil {
		t.Fatalf("expected error for unsupported aggregate")
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": "", "auto": "", "TOP": ModeTop, "counts": ModeCount, "sum": ModeGroup}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseMode("pie"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRankingsKeepNALabels(t *testing.T) {
	tbl := table(t,
		[]string{"code", "pop"},
		[]string{"NA", "9"},
		[]string{"KR", "5"},
		[]string{"NA", "3"},
	)
	top, err := TopN(tbl, "code", "pop", 0, dataset.NumberFormat{})
	if err != nil {
		t.Fatalf("TopN: %v", err)
	}
	if got, want := labels(top), []string{"NA", "KR", "NA"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("top labels = %#v, want %#v", got, want)
	}

	counts, err := ValueCounts(tbl, "code", 0)
	if err != nil {
		t.Fatalf("ValueCounts: %v", err)
	}
	if got, want := labels(counts), []string{"NA", "KR"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("count labels = %#v, want %#v", got, want)
	}
	if counts.Entries[0].Value != 2 {
		t.Fatalf("NA count = %v, want 2", counts.Entries[0].Value)
	}

	sum, err := Aggregate(tbl, "code", "pop", AggSum, 0, dataset.NumberFormat{})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(sum.Entries) != 2 || sum.Entries[0].Label != "NA" || sum.Entries[0].Value != 12 {
		t.Fatalf("sum entries = %+v", sum.Entries)
	}
}
