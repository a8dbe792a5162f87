package stability

import (
	"math"

	"github.com/san-kum/dynstab/internal/aero"
)

const (
	// GasConstant is the specific gas constant of dry air, J/(kg*K).
	GasConstant = 287.1
	// HeatRatio is the ratio of specific heats of air.
	HeatRatio = 1.4
)

// Sample is one timestep of rocket state in SI units. Density, SoundSpeed
// and Mach may be left at zero or NaN and are then derived from Pressure,
// Temperature and Velocity. Components, when present, carry already
// resolved aerodynamics and take precedence over any aero table.
type Sample struct {
	Time                float64
	CG                  float64
	LongitudinalInertia float64
	PropellantMass      float64
	Temperature         float64
	Pressure            float64
	Density             float64
	SoundSpeed          float64
	Velocity            float64
	RefArea             float64
	Mach                float64
	Components          []aero.Component
}

func absent(v float64) bool { return math.IsNaN(v) || v <= 0 }

// resolved returns a copy with density, sound speed and Mach filled in.
// The Components slice is shared, not copied; it is never written.
func (s Sample) resolved() Sample {
	if absent(s.Density) {
		s.Density = math.NaN()
		if s.Pressure > 0 && s.Temperature > 0 {
			s.Density = s.Pressure / (GasConstant * s.Temperature)
		}
	}
	if absent(s.SoundSpeed) {
		s.SoundSpeed = math.NaN()
		if s.Temperature > 0 {
			s.SoundSpeed = math.Sqrt(HeatRatio * GasConstant * s.Temperature)
		}
	}
	if absent(s.Mach) {
		s.Mach = math.NaN()
		if !math.IsNaN(s.Velocity) && !absent(s.SoundSpeed) {
			s.Mach = s.Velocity / s.SoundSpeed
		}
	}
	return s
}
