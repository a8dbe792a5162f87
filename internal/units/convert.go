package units

import (
	"fmt"
	"math"
)

// dimension identifies what a single term measures. Powered terms carry
// the exponent; cubed lengths fold into the volume family.
type dimension struct {
	family string
	exp    float64
}

// quantity is a resolved single term: base = value*factor + offset.
type quantity struct {
	dim       dimension
	factor    float64
	offset    float64
	hasOffset bool
}

func resolve(e Expr) quantity {
	switch e.Kind {
	case KindSimple, KindPrefixed:
		q := quantity{
			dim:       dimension{family: e.family.Name, exp: 1},
			factor:    e.mult * e.member.Factor,
			offset:    e.member.Offset,
			hasOffset: e.member.HasOffset,
		}
		return q
	case KindPowered:
		inner := resolve(*e.Inner)
		q := quantity{
			dim:    dimension{family: inner.dim.family, exp: inner.dim.exp * e.Exponent},
			factor: math.Pow(inner.factor, e.Exponent),
		}
		if e.Exponent == 1 {
			q.offset, q.hasOffset = inner.offset, inner.hasOffset
		}
		if q.dim.family == FamilyLength && q.dim.exp == 3 {
			q.dim = dimension{family: FamilyVolume, exp: 1}
			q.factor *= litresPerCubicMetre
		}
		return q
	}
	panic("units: resolve called on composite expression")
}

// Conversion is a resolved affine map from one unit expression to another:
// to = from*Scale + Shift. It is immutable and safe for concurrent use.
type Conversion struct {
	From  string
	To    string
	Scale float64
	Shift float64
}

// NewConversion resolves both unit expressions and checks that they are
// structurally compatible. Composite expressions must have the same number
// of components in the same order; components are not reordered.
func NewConversion(from, to string) (*Conversion, error) {
	fe, err := Parse(from)
	if err != nil {
		return nil, &IncompatibleUnitsError{From: from, To: to, Wrapped: err}
	}
	te, err := Parse(to)
	if err != nil {
		return nil, &IncompatibleUnitsError{From: from, To: to, Wrapped: err}
	}

	fc, tc := fe.Components(), te.Components()
	if len(fc) != len(tc) {
		return nil, &IncompatibleUnitsError{
			From:   from,
			To:     to,
			Reason: fmt.Sprintf("composite has %d components, target has %d", len(fc), len(tc)),
		}
	}

	c := &Conversion{From: from, To: to, Scale: 1}
	for i := range fc {
		fq, tq := resolve(fc[i]), resolve(tc[i])
		if fq.dim != tq.dim {
			return nil, &IncompatibleUnitsError{
				From:   from,
				To:     to,
				Reason: fmt.Sprintf("component %d: %s is not convertible to %s", i+1, fc[i], tc[i]),
			}
		}
		c.Scale *= fq.factor / tq.factor
	}

	// Offsets only apply to a lone absolute unit; inside a product they
	// describe intervals.
	if len(fc) == 1 {
		fq, tq := resolve(fc[0]), resolve(tc[0])
		if fq.hasOffset {
			c.Shift += fq.offset / tq.factor
		}
		if tq.hasOffset {
			c.Shift -= tq.offset / tq.factor
		}
	}
	return c, nil
}

// Apply converts a single value.
func (c *Conversion) Apply(v float64) float64 {
	return v*c.Scale + c.Shift
}

// ApplyAll converts every element, returning a new slice of the same length.
func (c *Conversion) ApplyAll(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = c.Apply(v)
	}
	return out
}

// ApplyGrid converts a two-dimensional array elementwise, preserving its shape.
func (c *Conversion) ApplyGrid(g [][]float64) [][]float64 {
	out := make([][]float64, len(g))
	for i, row := range g {
		out[i] = c.ApplyAll(row)
	}
	return out
}

// Inverse returns the conversion in the opposite direction.
func (c *Conversion) Inverse() *Conversion {
	return &Conversion{From: c.To, To: c.From, Scale: 1 / c.Scale, Shift: -c.Shift / c.Scale}
}

// Convert converts value from one unit expression to another.
func Convert(value float64, from, to string) (float64, error) {
	c, err := NewConversion(from, to)
	if err != nil {
		return 0, err
	}
	return c.Apply(value), nil
}

// ConvertSlice converts every element of values.
func ConvertSlice(values []float64, from, to string) ([]float64, error) {
	c, err := NewConversion(from, to)
	if err != nil {
		return nil, err
	}
	return c.ApplyAll(values), nil
}

// ConvertGrid converts a two-dimensional array elementwise.
func ConvertGrid(values [][]float64, from, to string) ([][]float64, error) {
	c, err := NewConversion(from, to)
	if err != nil {
		return nil, err
	}
	return c.ApplyGrid(values), nil
}

// Validate reports whether from can be converted to to.
func Validate(from, to string) bool {
	_, err := NewConversion(from, to)
	return err == nil
}

// CompatibleUnits lists every registry literal convertible to unit, in
// registry order. Powered units return the family members raised to the same
// power; composites return the ordered cross product of their components.
func CompatibleUnits(unit string) ([]string, error) {
	e, err := Parse(unit)
	if err != nil {
		return nil, err
	}
	out := []string{""}
	for i, term := range e.Components() {
		opts := compatibleTerm(term)
		next := make([]string, 0, len(out)*len(opts))
		for _, head := range out {
			for _, o := range opts {
				if i == 0 {
					next = append(next, o)
				} else {
					next = append(next, head+"*"+o)
				}
			}
		}
		out = next
	}
	return out, nil
}

func compatibleTerm(e Expr) []string {
	switch e.Kind {
	case KindPowered:
		syms := e.Inner.family.Symbols()
		suffix := "^" + formatExponent(e.Exponent)
		for i := range syms {
			syms[i] += suffix
		}
		return syms
	default:
		return e.family.Symbols()
	}
}

// PreferredUnit returns the family's preferred display unit for unit. Units
// whose family registers no preference, and tokens that cannot be parsed,
// come back unchanged.
func PreferredUnit(unit string) string {
	e, err := Parse(unit)
	if err != nil {
		return unit
	}
	terms := e.Components()
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = preferredTerm(t)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += "*" + p
	}
	return out
}

func preferredTerm(e Expr) string {
	f := e.Family()
	if f == nil || f.Preferred == "" {
		return e.Raw
	}
	if e.Kind == KindPowered {
		return f.Preferred + "^" + formatExponent(e.Exponent)
	}
	return f.Preferred
}
