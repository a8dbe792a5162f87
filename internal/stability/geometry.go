package stability

import "math"

// FinSet is the planform of one fin set. Lengths are in metres.
type FinSet struct {
	Name      string  `yaml:"name" json:"name"`
	RootChord float64 `yaml:"root_chord" json:"root_chord"`
	TipChord  float64 `yaml:"tip_chord" json:"tip_chord"`
	Thickness float64 `yaml:"thickness" json:"thickness"`
	Span      float64 `yaml:"span" json:"span"`
}

func (f FinSet) complete() bool {
	return f.RootChord > 0 && f.TipChord > 0 && f.Thickness > 0 && f.Span > 0
}

// Geometry is the rocket geometry the calculator needs. Length is the
// overall body length, used as the nozzle exit when none is given.
type Geometry struct {
	Length  float64  `yaml:"length" json:"length"`
	FinSets []FinSet `yaml:"fin_sets" json:"fin_sets"`
}

// Material is a fin material with a known shear modulus in Pa.
type Material struct {
	Name         string  `yaml:"name" json:"name"`
	ShearModulus float64 `yaml:"shear_modulus" json:"shear_modulus"`
}

const (
	// DefaultSafetyFactor divides the shear modulus of every material.
	DefaultSafetyFactor = 10.0

	// unityShearModulus is the modulus the baseline flutter velocity assumes.
	unityShearModulus = 1.0

	flutterDenominator = 1.337
)

// DefaultMaterials returns carbon fibre and fibreglass.
func DefaultMaterials() []Material {
	return []Material{
		{Name: "carbon_fiber", ShearModulus: 1e10},
		{Name: "fiberglass", ShearModulus: 3e10},
	}
}

// FlutterCoefficient computes the geometric flutter constant from the first
// fin set that exposes all four dimensions:
//
//	area = (root+tip)/2 * span
//	AR   = span^2 / area
//	lam  = tip / root
//	k    = sqrt(2(AR+2)(t/root)^3 / (1.337 AR^3 (lam+1)))
func FlutterCoefficient(g Geometry) (float64, error) {
	for _, f := range g.FinSets {
		if !f.complete() {
			continue
		}
		area := 0.5 * (f.RootChord + f.TipChord) * f.Span
		ar := f.Span * f.Span / area
		lambda := f.TipChord / f.RootChord
		ratio := f.Thickness / f.RootChord
		return math.Sqrt(2 * (ar + 2) * ratio * ratio * ratio /
			(flutterDenominator * ar * ar * ar * (lambda + 1))), nil
	}
	return math.NaN(), &NoFinSetFoundError{Inspected: len(g.FinSets)}
}

// MaterialScale is the factor applied to the baseline flutter velocity for a
// material: sqrt(G / (G_unity * safetyFactor)).
func MaterialScale(shearModulus, safetyFactor float64) float64 {
	if shearModulus <= 0 || safetyFactor <= 0 {
		return math.NaN()
	}
	return math.Sqrt(shearModulus / (unityShearModulus * safetyFactor))
}
