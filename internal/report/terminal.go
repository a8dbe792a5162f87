// Package report renders reduced runs for people: terminal graphs, PNG
// charts and styled summary tables.
package report

import (
	"errors"
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
)

// ErrNoData is returned when a series has no finite value to draw.
var ErrNoData = errors.New("report: no finite values to plot")

// GraphOptions sizes a terminal graph.
type GraphOptions struct {
	Width  int
	Height int
}

func DefaultGraphOptions() GraphOptions {
	return GraphOptions{Width: 80, Height: 10}
}

// Finite drops NaN and infinite values, keeping xs and ys aligned.
func Finite(xs, ys []float64) ([]float64, []float64) {
	outX := make([]float64, 0, len(ys))
	outY := make([]float64, 0, len(ys))
	for i, y := range ys {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		if i < len(xs) {
			outX = append(outX, xs[i])
		}
		outY = append(outY, y)
	}
	return outX, outY
}

// Graph draws the finite values of one field as an ASCII line graph. The
// caption carries the field name, unit and time span.
func Graph(field, unit string, times, values []float64, opts GraphOptions) (string, error) {
	ts, ys := Finite(times, values)
	if len(ys) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoData, field)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultGraphOptions()
	}

	caption := fmt.Sprintf("%s [%s]", field, unit)
	if len(ts) > 1 {
		caption += fmt.Sprintf("  t=%.2fs..%.2fs", ts[0], ts[len(ts)-1])
	}
	return asciigraph.Plot(ys,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
	), nil
}
