// Package metrics summarises a reduced run: extremes and means of a metric
// over air-stabilized ascent, values at event times, burnout, and
// statistics across independent runs.
package metrics

import (
	"github.com/san-kum/dynstab/internal/stability"
)

// Metric accumulates one scalar over a run. Observe is called once per
// reduced sample, in time order.
type Metric interface {
	Name() string
	Observe(s stability.Sample, m stability.Metrics)
	Value() float64
	Reset()
}

// Standard returns the summary metrics reported for every run: max, min and
// mean of the damping ratio, natural frequency, static margin, dynamic
// pressure and baseline flutter velocity, the stable fraction and burnout.
func Standard() []Metric {
	var out []Metric
	for _, f := range []string{"dr", "nf", "sm", "q", "vf"} {
		out = append(out, NewMax(f), NewMin(f), NewMean(f))
	}
	out = append(out, NewStability(1.0), NewBurnout())
	return out
}

// Collect reads every metric into a name/value map.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
