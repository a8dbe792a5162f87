package metrics

import (
	"math"

	"github.com/san-kum/dynstab/internal/stability"
)

// Extreme tracks the largest or smallest value of a field over ascent.
// NaN values are skipped; a run without any finite value reports NaN.
type Extreme struct {
	name  string
	field string
	less  bool
	value float64
	seen  bool
}

func NewMax(field string) *Extreme {
	return &Extreme{name: "max_" + field, field: field}
}

func NewMin(field string) *Extreme {
	return &Extreme{name: "min_" + field, field: field, less: true}
}

func (e *Extreme) Name() string { return e.name }

func (e *Extreme) Observe(s stability.Sample, m stability.Metrics) {
	if !m.Applicable() {
		return
	}
	v, ok := m.Value(e.field)
	if !ok || math.IsNaN(v) {
		return
	}
	if !e.seen || (e.less && v < e.value) || (!e.less && v > e.value) {
		e.value = v
		e.seen = true
	}
}

func (e *Extreme) Value() float64 {
	if !e.seen {
		return math.NaN()
	}
	return e.value
}

func (e *Extreme) Reset() {
	e.value = 0
	e.seen = false
}

// Mean averages a field over ascent, ignoring NaN.
type Mean struct {
	name    string
	field   string
	sum     float64
	samples int
}

func NewMean(field string) *Mean {
	return &Mean{name: "avg_" + field, field: field}
}

func (a *Mean) Name() string { return a.name }

func (a *Mean) Observe(s stability.Sample, m stability.Metrics) {
	if !m.Applicable() {
		return
	}
	v, ok := m.Value(a.field)
	if !ok || math.IsNaN(v) {
		return
	}
	a.sum += v
	a.samples++
}

func (a *Mean) Value() float64 {
	if a.samples == 0 {
		return math.NaN()
	}
	return a.sum / float64(a.samples)
}

func (a *Mean) Reset() {
	a.sum = 0
	a.samples = 0
}
