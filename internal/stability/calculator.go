// Package stability reduces per-timestep rocket state into dynamic stability
// metrics: corrective and damping moment coefficients, damping ratio,
// natural frequency, static margin, dynamic pressure, characteristic
// oscillation distance and fin flutter velocities.
//
// # Thread Safety
//
// A Calculator remembers the previous sample's propellant mass and time and
// is NOT safe for concurrent use. Give each pipeline its own instance.
package stability

import (
	"math"

	"github.com/san-kum/dynstab/internal/aero"
	"github.com/san-kum/dynstab/internal/phase"
)

// Config holds everything fixed for one rocket and one run. Lengths are in
// metres measured from the nose tip.
type Config struct {
	Geometry Geometry
	// NozzleExit is the axial location used for jet damping. Zero means
	// the body length.
	NozzleExit   float64
	Events       phase.Events
	Convention   Convention
	Materials    []Material
	SafetyFactor float64
	// Table resolves aerodynamics for samples that carry a Mach number but
	// no components.
	Table *aero.Table
}

type Calculator struct {
	cfg        Config
	nozzleExit float64
	classifier *phase.Classifier

	flutterCoeff float64
	flutterErr   error
	scales       []float64

	hasPrev  bool
	prevMass float64
	prevTime float64
}

// New builds a Calculator. A geometry without a complete fin set does not
// fail construction: the error is kept in FlutterErr and every flutter
// velocity is NaN while the remaining metrics are still computed.
func New(cfg Config) *Calculator {
	cfg.Convention = cfg.Convention.WithDefaults()
	if cfg.SafetyFactor <= 0 {
		cfg.SafetyFactor = DefaultSafetyFactor
	}
	c := &Calculator{
		cfg:        cfg,
		nozzleExit: cfg.NozzleExit,
		classifier: phase.NewClassifier(cfg.Events),
		scales:     make([]float64, len(cfg.Materials)),
	}
	if c.nozzleExit <= 0 {
		c.nozzleExit = cfg.Geometry.Length
	}
	c.flutterCoeff, c.flutterErr = FlutterCoefficient(cfg.Geometry)
	for i, m := range cfg.Materials {
		c.scales[i] = MaterialScale(m.ShearModulus, cfg.SafetyFactor)
	}
	return c
}

// FlutterErr returns the error from computing the flutter coefficient, if any.
func (c *Calculator) FlutterErr() error { return c.flutterErr }

// FlutterCoefficient returns the geometric flutter constant, NaN when no
// fin set was usable.
func (c *Calculator) FlutterCoefficient() float64 { return c.flutterCoeff }

func (c *Calculator) Config() Config { return c.cfg }

// Fields lists the metric columns this calculator produces.
func (c *Calculator) Fields() []Field {
	return Fields(c.cfg.Convention, c.cfg.Materials)
}

// Phase returns the most recent phase decided by the classifier.
func (c *Calculator) Phase() phase.Phase { return c.classifier.Current() }

// Reset clears the previous-sample memory and the phase latch.
func (c *Calculator) Reset() {
	c.hasPrev = false
	c.prevMass, c.prevTime = 0, 0
	c.classifier.Reset()
}

// Reduce classifies s by the configured event times and reduces it.
// Samples must arrive in increasing time order.
func (c *Calculator) Reduce(s Sample) Metrics {
	return c.ReducePhase(s, c.classifier.Classify(s.Time))
}

// ReduceFlags classifies s from live launch-rod and apogee flags.
func (c *Calculator) ReduceFlags(s Sample, launchRodCleared, apogeeReached bool) Metrics {
	return c.ReducePhase(s, c.classifier.Observe(launchRodCleared, apogeeReached))
}

// ReducePhase reduces s under an already decided phase. The mass-flow
// memory is updated in every phase.
func (c *Calculator) ReducePhase(s Sample, p phase.Phase) Metrics {
	mdot := c.massFlow(s)
	if p != phase.AirStabilizedAscent {
		return notApplicable(s.Time, p, c.cfg.Materials)
	}

	s = s.resolved()
	m := notApplicable(s.Time, p, c.cfg.Materials)
	m.Mach = s.Mach
	m.MDot = mdot

	comps, cna, cp := c.aerodynamics(s)
	m.CNa, m.CP = cna, cp

	rho, v, aref, cg, inertia := s.Density, s.Velocity, s.RefArea, s.CG, s.LongitudinalInertia

	m.Q = 0.5 * rho * v * v
	m.C1 = m.Q * aref * cna * (cp - cg)

	arm := c.nozzleExit - cg
	m.C2R = mdot * arm * arm

	switch c.cfg.Convention.AeroDamping {
	case DampingAggregate:
		m.C2A = 0.5 * rho * v * aref * cna * (cp - cg) * (cp - cg)
	default:
		sum := 0.0
		for _, comp := range comps {
			d := comp.CP - cg
			sum += comp.CNa * d * d
		}
		m.C2A = 0.5 * rho * v * aref * sum
	}
	m.C2 = m.C2R + m.C2A

	if k := m.C1 * inertia; k > 0 {
		m.DR = m.C2 / (2 * math.Sqrt(k))
	}
	if m.C1 >= 0 && inertia > 0 {
		m.NF = math.Sqrt(m.C1 / inertia)
		if c.cfg.Convention.NaturalFrequency == FrequencyHertz {
			m.NF /= 2 * math.Pi
		}
	}
	if aref > 0 {
		m.SM = (cp - cg) / math.Sqrt(4*aref/math.Pi)
	}
	if v > 0 {
		m.COD = m.NF / v
	}

	if c.flutterErr == nil && s.Pressure > 0 {
		m.VF = s.SoundSpeed * c.flutterCoeff / math.Sqrt(s.Pressure)
		for i := range m.Flutter {
			m.Flutter[i].Velocity = m.VF * c.scales[i]
		}
	}
	return m
}

// massFlow is a first-order backward difference of propellant mass. The
// first sample, and any sample that does not advance time, give zero.
func (c *Calculator) massFlow(s Sample) float64 {
	mdot := 0.0
	if c.hasPrev {
		if dt := s.Time - c.prevTime; dt > 0 {
			mdot = (c.prevMass - s.PropellantMass) / dt
		}
	}
	c.hasPrev = true
	c.prevMass, c.prevTime = s.PropellantMass, s.Time
	return mdot
}

// aerodynamics resolves the components and the vehicle slope and centre of
// pressure. Components attached to the sample win; otherwise the table is
// interpolated at the sample's Mach number, preferring its aggregate
// columns for the vehicle totals.
func (c *Calculator) aerodynamics(s Sample) ([]aero.Component, float64, float64) {
	if len(s.Components) > 0 {
		cna, cp := c.combine(s.Components)
		return s.Components, cna, cp
	}
	t := c.cfg.Table
	if t == nil {
		return nil, math.NaN(), math.NaN()
	}

	comps := t.ComponentsAt(s.Mach)
	cna, cp, ok := t.AggregateAt(s.Mach)
	switch {
	case ok && len(comps) == 0:
		comps = []aero.Component{{Name: aero.ColumnCNa, CNa: cna, CP: cp}}
	case !ok && len(comps) > 0:
		cna, cp = c.combine(comps)
	case !ok:
		return nil, math.NaN(), math.NaN()
	}
	return comps, cna, cp
}

func (c *Calculator) combine(comps []aero.Component) (cna, cp float64) {
	var moment float64
	for _, comp := range comps {
		cna += comp.CNa
		cp += comp.CP
		moment += comp.CNa * comp.CP
	}
	if c.cfg.Convention.CPCombine == CPWeighted {
		cp = math.NaN()
		if cna != 0 {
			cp = moment / cna
		}
	}
	return cna, cp
}
