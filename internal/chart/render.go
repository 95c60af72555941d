package chart

import (
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/rankboard/internal/rank"
)

// Format is a raster or vector output format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts "png" or "svg", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unsupported chart format %q (use png|svg)", s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Render draws r as a bar chart in the given format. Bars follow ranking order
// and are shaded along the scheme gradient by value. Missing values are skipped.
func Render(r *rank.Ranking, opt Options, format Format, w io.Writer) error {
	opt = opt.withDefaults()
	grad, err := NewGradient(opt.Scheme)
	if err != nil {
		return err
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, e := range r.Entries {
		if e.Missing {
			continue
		}
		lo = math.Min(lo, e.Value)
		hi = math.Max(hi, e.Value)
	}
	if math.IsInf(lo, 1) {
		return ErrNoData
	}

	bars := make([]gochart.Value, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.Missing {
			continue
		}
		t := 1.0
		if hi > lo {
			t = (e.Value - lo) / (hi - lo)
		}
		col := grad.At(t)
		bars = append(bars, gochart.Value{
			Value: e.Value,
			Label: e.Label,
			Style: gochart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
		})
	}

	yMin, yMax := math.Min(0, lo), math.Max(0, hi)
	if yMax == yMin {
		yMax = yMin + 1
	}
	bw := barWidth(opt.Width, len(bars))
	bc := gochart.BarChart{
		Title:      opt.Title,
		Width:      opt.Width,
		Height:     opt.Height,
		BarWidth:   bw,
		BarSpacing: bw,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 24}},
		XAxis:      gochart.Style{TextRotationDegrees: labelRotation(len(bars))},
		YAxis: gochart.YAxis{
			Name:  r.ValueTitle(),
			Range: &gochart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Bars: bars,
	}

	provider := gochart.PNG
	if format == FormatSVG {
		provider = gochart.SVG
	}
	if err := bc.Render(provider, w); err != nil {
		return fmt.Errorf("render %s chart: %w", format, err)
	}
	return nil
}

func barWidth(width, n int) int {
	if n == 0 {
		return 0
	}
	w := (width - 80) / (n * 2)
	return min(max(w, 4), 60)
}

func labelRotation(n int) float64 {
	if n > 8 {
		return 45
	}
	return 0
}
