// Package chart turns a ranking into a bar chart: a Vega-Lite spec for the
// browser and a PNG/SVG rendering for exports.
package chart

import (
	"errors"

	"github.com/KaramelBytes/rankboard/internal/rank"
)

const vegaLiteSchema = "https://vega.github.io/schema/vega-lite/v5.json"

// ErrNoData is returned when a ranking has nothing to draw.
var ErrNoData = errors.New("nothing to chart")

// Options controls chart appearance.
type Options struct {
	Title  string
	Scheme string
	Width  int
	Height int
}

// DefaultOptions returns the dashboard's chart settings.
func DefaultOptions() Options {
	return Options{Scheme: DefaultScheme, Width: 600, Height: 400}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Scheme == "" {
		o.Scheme = d.Scheme
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	return o
}

// Spec is a Vega-Lite v5 horizontal bar chart with inline data.
type Spec struct {
	Schema   string   `json:"$schema"`
	Title    string   `json:"title,omitempty"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Data     Data     `json:"data"`
	Mark     Mark     `json:"mark"`
	Encoding Encoding `json:"encoding"`
}

type Data struct {
	Values []Datum `json:"values"`
}

// Datum is one bar. Value is null for rows whose value cell was missing.
type Datum struct {
	Label string   `json:"label"`
	Value *float64 `json:"value"`
}

type Mark struct {
	Type            string `json:"type"`
	CornerRadiusEnd int    `json:"cornerRadiusEnd,omitempty"`
	Tooltip         bool   `json:"tooltip"`
}

type Encoding struct {
	Y       Channel   `json:"y"`
	X       Channel   `json:"x"`
	Color   Channel   `json:"color"`
	Tooltip []Channel `json:"tooltip"`
}

type Channel struct {
	Field  string `json:"field"`
	Type   string `json:"type"`
	Title  string `json:"title,omitempty"`
	Sort   string `json:"sort,omitempty"`
	Format string `json:"format,omitempty"`
	Scale  *Scale `json:"scale,omitempty"`
}

type Scale struct {
	Zero   *bool  `json:"zero,omitempty"`
	Scheme string `json:"scheme,omitempty"`
}

// BarSpec builds the Vega-Lite spec for r: categories on y sorted by
// descending value, value on x, color by value.
func BarSpec(r *rank.Ranking, opt Options) Spec {
	opt = opt.withDefaults()
	values := make([]Datum, 0, len(r.Entries))
	for _, e := range r.Entries {
		d := Datum{Label: e.Label}
		if !e.Missing {
			v := e.Value
			d.Value = &v
		}
		values = append(values, d)
	}
	zero := false
	valueTitle := r.ValueTitle()
	return Spec{
		Schema: vegaLiteSchema,
		Title:  opt.Title,
		Width:  opt.Width,
		Height: opt.Height,
		Data:   Data{Values: values},
		Mark:   Mark{Type: "bar", CornerRadiusEnd: 4, Tooltip: true},
		Encoding: Encoding{
			Y:     Channel{Field: "label", Type: "nominal", Title: r.LabelColumn, Sort: "-x"},
			X:     Channel{Field: "value", Type: "quantitative", Title: valueTitle, Scale: &Scale{Zero: &zero}},
			Color: Channel{Field: "value", Type: "quantitative", Title: valueTitle, Scale: &Scale{Scheme: opt.Scheme}},
			Tooltip: []Channel{
				{Field: "label", Type: "nominal", Title: r.LabelColumn},
				{Field: "value", Type: "quantitative", Title: valueTitle, Format: ",.4~g"},
			},
		},
	}
}
