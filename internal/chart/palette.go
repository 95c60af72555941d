package chart

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// DefaultScheme is the color scheme used when none is configured.
const DefaultScheme = "tealblues"

// schemes holds gradient stops for the sequential color schemes the server
// can rasterize. Names follow the Vega scheme registry.
var schemes = map[string][]string{
	"tealblues": {"#bce4d8", "#5ba8c4", "#2c5985"},
	"blues":     {"#cfe1f2", "#6aaed6", "#08306b"},
	"greens":    {"#d3eecd", "#74c476", "#00441b"},
	"oranges":   {"#fdd5ad", "#f98b3a", "#7f2704"},
	"purples":   {"#e2e1ef", "#9e9ac8", "#3f007d"},
	"viridis":   {"#440154", "#21918c", "#fde725"},
}

// Schemes lists the known scheme names, sorted.
func Schemes() []string {
	out := make([]string, 0, len(schemes))
	for k := range schemes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ValidScheme reports whether name is a known scheme.
func ValidScheme(name string) bool {
	_, ok := schemes[strings.ToLower(name)]
	return ok
}

// Gradient maps t in [0,1] onto a scheme's stops.
type Gradient struct {
	stops []drawing.Color
}

// NewGradient returns the gradient for scheme.
func NewGradient(scheme string) (Gradient, error) {
	if scheme == "" {
		scheme = DefaultScheme
	}
	hex, ok := schemes[strings.ToLower(scheme)]
	if !ok {
		return Gradient{}, fmt.Errorf("unknown color scheme %q (known: %s)", scheme, strings.Join(Schemes(), ", "))
	}
	g := Gradient{stops: make([]drawing.Color, len(hex))}
	for i, h := range hex {
		g.stops[i] = drawing.ColorFromHex(strings.TrimPrefix(h, "#"))
	}
	return g, nil
}

// At returns the interpolated color at t; t is clamped to [0,1].
func (g Gradient) At(t float64) drawing.Color {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	segs := len(g.stops) - 1
	if segs <= 0 {
		return g.stops[0]
	}
	pos := t * float64(segs)
	i := int(math.Floor(pos))
	if i >= segs {
		return g.stops[segs]
	}
	return lerp(g.stops[i], g.stops[i+1], pos-float64(i))
}

func lerp(a, b drawing.Color, w float64) drawing.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*w))
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
