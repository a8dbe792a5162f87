// Package stream reduces stability metrics live, one simulation timestep at
// a time, from state the flight simulator hands over after each step.
package stream

import (
	"log/slog"
	"math"

	"github.com/san-kum/dynstab/internal/aero"
	"github.com/san-kum/dynstab/internal/logging"
	"github.com/san-kum/dynstab/internal/phase"
	"github.com/san-kum/dynstab/internal/pipeline"
	"github.com/san-kum/dynstab/internal/stability"
)

// State is the per-step snapshot in SI units. The two flags come straight
// from the simulator's event log.
type State struct {
	Time                float64
	Pressure            float64
	Temperature         float64
	SoundSpeed          float64
	Density             float64
	RefArea             float64
	PropellantMass      float64
	Velocity            float64
	LongitudinalInertia float64
	CG                  float64
	Components          []aero.Component

	LaunchRodCleared bool
	ApogeeReached    bool
}

func (s State) sample() stability.Sample {
	return stability.Sample{
		Time:                s.Time,
		CG:                  s.CG,
		LongitudinalInertia: s.LongitudinalInertia,
		PropellantMass:      s.PropellantMass,
		Temperature:         s.Temperature,
		Pressure:            s.Pressure,
		Density:             s.Density,
		SoundSpeed:          s.SoundSpeed,
		Velocity:            s.Velocity,
		RefArea:             s.RefArea,
		Components:          s.Components,
	}
}

// Listener accumulates the metric series for one simulation. It is not safe
// for concurrent use; run one Listener per simulation.
type Listener struct {
	name      string
	calc      *stability.Calculator
	observers []pipeline.Observer
	logger    *slog.Logger

	samples []stability.Sample
	series  []stability.Metrics
}

// NewListener builds a Listener. Event times in cfg are ignored; phases come
// from the per-step flags.
func NewListener(name string, cfg stability.Config, logger *slog.Logger) *Listener {
	l := &Listener{
		name:   name,
		calc:   stability.New(cfg),
		logger: logging.OrDiscard(logger).With("run", name),
	}
	if err := l.calc.FlutterErr(); err != nil {
		l.logger.Warn("flutter velocities unavailable", "err", err)
	}
	return l
}

func (l *Listener) AddObserver(o pipeline.Observer) { l.observers = append(l.observers, o) }

// OnStep reduces one timestep and records it.
func (l *Listener) OnStep(st State) stability.Metrics {
	s := st.sample()
	m := l.calc.ReduceFlags(s, st.LaunchRodCleared, st.ApogeeReached)

	if n := len(l.series); n == 0 || l.series[n-1].Phase != m.Phase {
		l.logger.Debug("phase", "time", st.Time, "phase", m.Phase)
	}

	for _, o := range l.observers {
		o.OnSample(l.name, s, m)
	}
	l.samples = append(l.samples, s)
	l.series = append(l.series, m)
	return m
}

// Series returns every metric recorded so far.
func (l *Listener) Series() []stability.Metrics {
	out := make([]stability.Metrics, len(l.series))
	copy(out, l.series)
	return out
}

// Samples returns every state recorded so far, as reduction input.
func (l *Listener) Samples() []stability.Sample {
	out := make([]stability.Sample, len(l.samples))
	copy(out, l.samples)
	return out
}

// Fields lists the metric columns of Series.
func (l *Listener) Fields() []stability.Field { return l.calc.Fields() }

// Events returns the launch-rod and apogee times seen so far, NaN for
// events that have not happened.
func (l *Listener) Events() phase.Events {
	ev := phase.Events{LaunchRod: math.NaN(), Apogee: math.NaN()}
	for _, m := range l.series {
		switch {
		case m.Phase == phase.AirStabilizedAscent && math.IsNaN(ev.LaunchRod):
			ev.LaunchRod = m.Time
		case m.Phase == phase.PostApogeeOrOther && math.IsNaN(ev.Apogee):
			ev.Apogee = m.Time
		}
	}
	return ev
}

// Result summarises the recorded series the same way an offline run is
// summarised, so live and recorded runs can be stored side by side.
func (l *Listener) Result() *pipeline.Result {
	ev := l.Events()
	ms := pipeline.DefaultMetrics(ev)
	for i, m := range l.series {
		for _, metric := range ms {
			metric.Observe(l.samples[i], m)
		}
	}
	res := &pipeline.Result{
		Name:       l.name,
		Fields:     l.calc.Fields(),
		Metrics:    l.Series(),
		Summary:    make(map[string]float64, len(ms)),
		Events:     ev,
		FlutterErr: l.calc.FlutterErr(),
	}
	for _, metric := range ms {
		res.Summary[metric.Name()] = metric.Value()
	}
	return res
}
