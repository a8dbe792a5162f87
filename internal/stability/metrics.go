package stability

import (
	"math"

	"github.com/san-kum/dynstab/internal/phase"
	"github.com/san-kum/dynstab/internal/units"
)

// MaterialVelocity is the flutter velocity scaled for one fin material.
type MaterialVelocity struct {
	Material string
	Velocity float64
}

// Metrics is the stability vector for one sample. Outside air-stabilized
// ascent every numeric field is NaN; Phase says why.
type Metrics struct {
	Time  float64
	Phase phase.Phase

	Mach float64
	MDot float64
	CNa  float64
	CP   float64
	C1   float64
	C2R  float64
	C2A  float64
	C2   float64
	DR   float64
	NF   float64
	SM   float64
	Q    float64
	COD  float64
	VF   float64

	Flutter []MaterialVelocity
}

// Applicable reports whether the metrics were computed.
func (m Metrics) Applicable() bool { return m.Phase == phase.AirStabilizedAscent }

func notApplicable(t float64, p phase.Phase, materials []Material) Metrics {
	nan := math.NaN()
	m := Metrics{
		Time: t, Phase: p,
		Mach: nan, MDot: nan, CNa: nan, CP: nan,
		C1: nan, C2R: nan, C2A: nan, C2: nan,
		DR: nan, NF: nan, SM: nan, Q: nan, COD: nan, VF: nan,
	}
	m.Flutter = make([]MaterialVelocity, len(materials))
	for i, mat := range materials {
		m.Flutter[i] = MaterialVelocity{Material: mat.Name, Velocity: nan}
	}
	return m
}

// Field names a metric column and the unit its values are expressed in.
type Field struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// Convert expresses values of this field in another unit.
func (f Field) Convert(values []float64, to string) ([]float64, error) {
	return units.ConvertSlice(values, f.Unit, to)
}

const flutterPrefix = "vf_"

var baseFields = []Field{
	{"mach", "unitless"},
	{"mdot", "kg*s^-1"},
	{"cna", "rad^-1"},
	{"cp", "m"},
	{"c1", "N*m"},
	{"c2r", "N*m*s"},
	{"c2a", "N*m*s"},
	{"c2", "N*m*s"},
	{"dr", "unitless"},
	{"nf", "rad*s^-1"},
	{"sm", "unitless"},
	{"q", "Pa"},
	{"cod", "rad*m^-1"},
	{"vf", "m*s^-1"},
}

// Fields lists every metric column for the given convention and materials,
// in output order.
func Fields(conv Convention, materials []Material) []Field {
	out := make([]Field, 0, len(baseFields)+len(materials))
	for _, f := range baseFields {
		if conv.NaturalFrequency == FrequencyHertz {
			switch f.Name {
			case "nf":
				f.Unit = "rot*s^-1"
			case "cod":
				f.Unit = "rot*m^-1"
			}
		}
		out = append(out, f)
	}
	for _, m := range materials {
		out = append(out, Field{Name: flutterPrefix + m.Name, Unit: "m*s^-1"})
	}
	return out
}

// Value returns the named field.
func (m Metrics) Value(name string) (float64, bool) {
	switch name {
	case "mach":
		return m.Mach, true
	case "mdot":
		return m.MDot, true
	case "cna":
		return m.CNa, true
	case "cp":
		return m.CP, true
	case "c1":
		return m.C1, true
	case "c2r":
		return m.C2R, true
	case "c2a":
		return m.C2A, true
	case "c2":
		return m.C2, true
	case "dr":
		return m.DR, true
	case "nf":
		return m.NF, true
	case "sm":
		return m.SM, true
	case "q":
		return m.Q, true
	case "cod":
		return m.COD, true
	case "vf":
		return m.VF, true
	}
	if len(name) > len(flutterPrefix) && name[:len(flutterPrefix)] == flutterPrefix {
		for _, f := range m.Flutter {
			if f.Material == name[len(flutterPrefix):] {
				return f.Velocity, true
			}
		}
	}
	return math.NaN(), false
}

// Values returns the fields in order, NaN for unknown names.
func (m Metrics) Values(fields []Field) []float64 {
	out := make([]float64, len(fields))
	for i, f := range fields {
		out[i], _ = m.Value(f.Name)
	}
	return out
}

// NaNCount counts fields that are NaN.
func (m Metrics) NaNCount(fields []Field) int {
	n := 0
	for _, v := range m.Values(fields) {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}
