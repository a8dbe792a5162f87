package stream

import (
	"math"
	"testing"

	"github.com/san-kum/dynstab/internal/aero"
	"github.com/san-kum/dynstab/internal/phase"
	"github.com/san-kum/dynstab/internal/stability"
)

type counter struct{ n int }

func (c *counter) OnSample(string, stability.Sample, stability.Metrics) { c.n++ }

func step(t float64, rod, apogee bool, mass float64) State {
	return State{
		Time:                t,
		Pressure:            95000,
		SoundSpeed:          338,
		Density:             1.15,
		RefArea:             0.0081,
		PropellantMass:      mass,
		Velocity:            120,
		LongitudinalInertia: 4.2,
		CG:                  0.9,
		Components: []aero.Component{
			{Name: "nose", CNa: 2.0, CP: 0.25},
			{Name: "body", CNa: 0.1, CP: 0.8},
			{Name: "fins", CNa: 6.0, CP: 1.45},
		},
		LaunchRodCleared: rod,
		ApogeeReached:    apogee,
	}
}

func TestListenerPhases(t *testing.T) {
	cfg := stability.Config{
		Geometry: stability.Geometry{
			Length:  1.6,
			FinSets: []stability.FinSet{{RootChord: 0.15, TipChord: 0.07, Thickness: 0.003, Span: 0.08}},
		},
		Materials: stability.DefaultMaterials(),
	}
	c := &counter{}
	l := NewListener("live", cfg, nil)
	l.AddObserver(c)

	steps := []State{
		step(0.0, false, false, 1.2),
		step(0.1, false, false, 1.1),
		step(0.2, true, false, 1.0),
		step(0.3, true, false, 0.8),
		step(0.4, true, true, 0.8),
		step(0.5, false, false, 0.8),
	}
	want := []phase.Phase{
		phase.PreLaunchRod, phase.PreLaunchRod,
		phase.AirStabilizedAscent, phase.AirStabilizedAscent,
		phase.PostApogeeOrOther, phase.PostApogeeOrOther,
	}
	for i, st := range steps {
		m := l.OnStep(st)
		if m.Phase != want[i] {
			t.Errorf("step %d: expected %v, got %v", i, want[i], m.Phase)
		}
	}
	if c.n != len(steps) {
		t.Errorf("observer saw %d samples, expected %d", c.n, len(steps))
	}

	series := l.Series()
	first := series[2]
	wantMdot := (1.1 - 1.0) / 0.1
	if math.Abs(first.MDot-wantMdot) > 1e-9 {
		t.Errorf("mass memory lost across phase change: expected %v, got %v", wantMdot, first.MDot)
	}
	wantC2R := wantMdot * (1.6 - 0.9) * (1.6 - 0.9)
	if math.Abs(first.C2R-wantC2R) > 1e-9 {
		t.Errorf("expected C2R %v with nozzle at body length, got %v", wantC2R, first.C2R)
	}
	if math.Abs(first.CNa-8.1) > 1e-12 {
		t.Errorf("expected cna 8.1, got %v", first.CNa)
	}
	if math.IsNaN(first.VF) || math.IsNaN(first.Flutter[1].Velocity) {
		t.Errorf("expected flutter velocities, got %v %+v", first.VF, first.Flutter)
	}

	ev := l.Events()
	if ev.LaunchRod != 0.2 || ev.Apogee != 0.4 {
		t.Errorf("unexpected events %+v", ev)
	}

	res := l.Result()
	if len(res.Metrics) != len(steps) || len(l.Samples()) != len(steps) {
		t.Errorf("expected %d entries, got %d metrics %d samples", len(steps), len(res.Metrics), len(l.Samples()))
	}
	if math.IsNaN(res.Summary["max_dr"]) {
		t.Error("expected a damping ratio summary")
	}
	if !math.IsNaN(res.Summary["burnout_time"]) {
		t.Errorf("expected no burnout, got %v", res.Summary["burnout_time"])
	}
}

func TestListenerMach(t *testing.T) {
	l := NewListener("live", stability.Config{}, nil)

	st := step(0.1, true, false, 1.0)
	st.Velocity, st.SoundSpeed = 170, 340
	m := l.OnStep(st)
	if math.Abs(m.Mach-0.5) > 1e-12 {
		t.Errorf("expected mach 0.5, got %v", m.Mach)
	}

	st = step(0.2, true, false, 1.0)
	st.SoundSpeed, st.Temperature = 0, 0
	m = l.OnStep(st)
	if !math.IsNaN(m.Mach) {
		t.Errorf("expected NaN mach without sound speed or temperature, got %v", m.Mach)
	}

	st = step(0.3, true, false, 1.0)
	st.SoundSpeed, st.Temperature = 0, 288.15
	m = l.OnStep(st)
	want := 120 / math.Sqrt(stability.HeatRatio*stability.GasConstant*288.15)
	if math.Abs(m.Mach-want) > 1e-12 {
		t.Errorf("expected mach %v from temperature, got %v", want, m.Mach)
	}
}
