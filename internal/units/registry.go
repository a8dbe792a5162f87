package units

import (
	"math"
	"strings"
)

// Member is one literal unit of a family. Factor converts a value in this
// unit to the family's base unit; Offset, when HasOffset is set, is added
// after scaling (base = value*Factor + Offset).
type Member struct {
	Symbol    string
	Factor    float64
	Offset    float64
	HasOffset bool
}

// Family groups units of one physical dimension around a base unit.
type Family struct {
	Name      string
	Base      string
	Preferred string
	Members   []Member
}

func (f *Family) member(symbol string) (Member, bool) {
	for _, m := range f.Members {
		if strings.EqualFold(m.Symbol, symbol) {
			return m, true
		}
	}
	return Member{}, false
}

// Symbols returns the family's literal units in registry order.
func (f *Family) Symbols() []string {
	out := make([]string, len(f.Members))
	for i, m := range f.Members {
		out[i] = m.Symbol
	}
	return out
}

// Prefix is a metric multiplier shorthand.
type Prefix struct {
	Symbol     string
	Multiplier float64
}

const (
	FamilyLength        = "length"
	FamilyVolume        = "volume"
	FamilyForce         = "force"
	FamilyTime          = "time"
	FamilyMass          = "mass"
	FamilyPressure      = "pressure"
	FamilyTemperature   = "temperature"
	FamilyEnergy        = "energy"
	FamilyAngle         = "angle"
	FamilyDimensionless = "dimensionless"
)

// litresPerCubicMetre relates a cubed length to the volume family's base unit.
const litresPerCubicMetre = 1e3

var families = []*Family{
	{
		Name: FamilyLength, Base: "m", Preferred: "ft",
		Members: []Member{
			{Symbol: "m", Factor: 1},
			{Symbol: "in", Factor: 0.0254},
			{Symbol: "ft", Factor: 0.0254 * 12.0},
			{Symbol: "mi", Factor: 1609.344},
		},
	},
	{
		Name: FamilyVolume, Base: "L", Preferred: "L",
		Members: []Member{
			{Symbol: "L", Factor: 1},
			{Symbol: "m^3", Factor: litresPerCubicMetre},
			{Symbol: "mm^3", Factor: 1e-6},
			{Symbol: "in^3", Factor: math.Pow(0.0254, 3) * litresPerCubicMetre},
			{Symbol: "ft^3", Factor: math.Pow(0.0254, 3) * 1728 * litresPerCubicMetre},
			{Symbol: "gal", Factor: 3.785411784},
		},
	},
	{
		Name: FamilyForce, Base: "N", Preferred: "lbf",
		Members: []Member{
			{Symbol: "N", Factor: 1},
			{Symbol: "lbf", Factor: 4.4482216},
		},
	},
	{
		Name: FamilyTime, Base: "s", Preferred: "s",
		Members: []Member{
			{Symbol: "s", Factor: 1},
			{Symbol: "min", Factor: 60},
			{Symbol: "hr", Factor: 3600},
		},
	},
	{
		Name: FamilyMass, Base: "g", Preferred: "lb",
		Members: []Member{
			{Symbol: "g", Factor: 1},
			{Symbol: "kg", Factor: 1000},
			{Symbol: "lb", Factor: 453.59237},
			{Symbol: "slug", Factor: 14593.90},
		},
	},
	{
		Name: FamilyPressure, Base: "Pa", Preferred: "psi",
		Members: []Member{
			{Symbol: "Pa", Factor: 1},
			{Symbol: "psi", Factor: 6894.7572931783},
			{Symbol: "atm", Factor: 101325},
			{Symbol: "bar", Factor: 1e5},
		},
	},
	{
		Name: FamilyTemperature, Base: "K", Preferred: "K",
		Members: []Member{
			{Symbol: "K", Factor: 1},
			{Symbol: "R", Factor: 5.0 / 9.0},
			{Symbol: "C", Factor: 1, Offset: 273.15, HasOffset: true},
			{Symbol: "F", Factor: 5.0 / 9.0, Offset: 273.15 - 32*5.0/9.0, HasOffset: true},
		},
	},
	{
		Name: FamilyEnergy, Base: "J",
		Members: []Member{
			{Symbol: "J", Factor: 1},
		},
	},
	{
		Name: FamilyAngle, Base: "rad", Preferred: "deg",
		Members: []Member{
			{Symbol: "rad", Factor: 1},
			{Symbol: "deg", Factor: math.Pi / 180},
			{Symbol: "rot", Factor: 2 * math.Pi},
		},
	},
	{
		Name: FamilyDimensionless, Base: "unitless",
		Members: []Member{
			{Symbol: "unitless", Factor: 1},
			{Symbol: "none", Factor: 1},
		},
	},
}

// Order matters: "da" must be tried before "d".
var prefixes = []Prefix{
	{Symbol: "k", Multiplier: 1000},
	{Symbol: "h", Multiplier: 100},
	{Symbol: "da", Multiplier: 10},
	{Symbol: "d", Multiplier: 0.1},
	{Symbol: "c", Multiplier: 0.01},
	{Symbol: "m", Multiplier: 1e-3},
	{Symbol: "n", Multiplier: 1e-9},
}

var familyByName = func() map[string]*Family {
	m := make(map[string]*Family, len(families))
	for _, f := range families {
		m[f.Name] = f
	}
	return m
}()

// Families returns the registered unit families in registry order.
func Families() []*Family {
	out := make([]*Family, len(families))
	copy(out, families)
	return out
}

// LookupFamily returns a family by name.
func LookupFamily(name string) (*Family, bool) {
	f, ok := familyByName[name]
	return f, ok
}

// Available lists every literal unit in the registry.
func Available() []string {
	var out []string
	for _, f := range families {
		out = append(out, f.Symbols()...)
	}
	return out
}

// findLiteral matches a token against every family member, ignoring case.
func findLiteral(token string) (*Family, Member, bool) {
	for _, f := range families {
		if m, ok := f.member(token); ok {
			return f, m, true
		}
	}
	return nil, Member{}, false
}
