package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/dynstab/internal/stability"
)

// AtTime captures a field at the first sample at or after an event time.
type AtTime struct {
	name  string
	field string
	time  float64
	value float64
	done  bool
}

// NewAtTime names the metric "<field>_at_<event>".
func NewAtTime(field, event string, t float64) *AtTime {
	return &AtTime{name: fmt.Sprintf("%s_at_%s", field, event), field: field, time: t, value: math.NaN()}
}

func (a *AtTime) Name() string { return a.name }

func (a *AtTime) Observe(s stability.Sample, m stability.Metrics) {
	if a.done || math.IsNaN(a.time) || m.Time < a.time {
		return
	}
	a.value, _ = m.Value(a.field)
	a.done = true
}

func (a *AtTime) Value() float64 { return a.value }

func (a *AtTime) Reset() {
	a.value = math.NaN()
	a.done = false
}

// Burnout records the time of the first sample with no propellant left.
type Burnout struct {
	time float64
	done bool
}

func NewBurnout() *Burnout {
	return &Burnout{time: math.NaN()}
}

func (b *Burnout) Name() string { return "burnout_time" }

func (b *Burnout) Observe(s stability.Sample, _ stability.Metrics) {
	if b.done || math.IsNaN(s.PropellantMass) || s.PropellantMass > 0 {
		return
	}
	b.time = s.Time
	b.done = true
}

func (b *Burnout) Value() float64 { return b.time }

func (b *Burnout) Reset() {
	b.time = math.NaN()
	b.done = false
}
