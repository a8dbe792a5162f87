package units

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the shape of a parsed unit expression.
type Kind int

const (
	KindSimple Kind = iota
	KindPrefixed
	KindPowered
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindPrefixed:
		return "prefixed"
	case KindPowered:
		return "powered"
	case KindComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// Expr is a parsed unit expression.
//
//	Simple:    Symbol is a registry literal ("in", "m^3")
//	Prefixed:  Prefix + Symbol ("k" + "m")
//	Powered:   Inner raised to Exponent ("in^2", "km^-1")
//	Composite: ordered Terms joined by '*'
type Expr struct {
	Kind     Kind
	Raw      string
	Symbol   string
	Prefix   string
	Exponent float64
	Inner    *Expr
	Terms    []Expr

	family *Family
	member Member
	mult   float64
}

// Parse turns a unit token into an Expr. Components of a composite are
// separated by '*'; surrounding spaces and parentheses are ignored.
func Parse(s string) (Expr, error) {
	parts := splitComposite(s)
	if len(parts) == 1 {
		return parseTerm(parts[0])
	}
	e := Expr{Kind: KindComposite, Raw: s, Terms: make([]Expr, 0, len(parts))}
	for _, p := range parts {
		t, err := parseTerm(p)
		if err != nil {
			return Expr{}, err
		}
		e.Terms = append(e.Terms, t)
	}
	return e, nil
}

func splitComposite(s string) []string {
	raw := strings.Split(s, "*")
	out := make([]string, len(raw))
	for i, p := range raw {
		out[i] = strings.Trim(p, " ()")
	}
	return out
}

func parseTerm(tok string) (Expr, error) {
	if tok == "" {
		return Expr{}, &UnknownUnitError{Token: tok}
	}
	if f, m, ok := findLiteral(tok); ok {
		return Expr{Kind: KindSimple, Raw: tok, Symbol: m.Symbol, family: f, member: m, mult: 1}, nil
	}

	if base, exp, ok := strings.Cut(tok, "^"); ok {
		p, err := strconv.ParseFloat(strings.TrimSpace(exp), 64)
		if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
			return Expr{}, &UnknownUnitError{Token: tok}
		}
		inner, err := parseTerm(base)
		if err != nil {
			return Expr{}, err
		}
		if inner.Kind == KindPowered {
			return Expr{}, &UnknownUnitError{Token: tok}
		}
		return Expr{Kind: KindPowered, Raw: tok, Exponent: p, Inner: &inner}, nil
	}

	for _, pre := range prefixes {
		if len(tok) <= len(pre.Symbol) || !strings.EqualFold(tok[:len(pre.Symbol)], pre.Symbol) {
			continue
		}
		rest := tok[len(pre.Symbol):]
		if f, m, ok := findLiteral(rest); ok {
			return Expr{
				Kind:   KindPrefixed,
				Raw:    tok,
				Symbol: m.Symbol,
				Prefix: pre.Symbol,
				family: f,
				member: m,
				mult:   pre.Multiplier,
			}, nil
		}
	}
	return Expr{}, &UnknownUnitError{Token: tok}
}

// String renders the expression back into a canonical token.
func (e Expr) String() string {
	switch e.Kind {
	case KindSimple:
		return e.Symbol
	case KindPrefixed:
		return e.Prefix + e.Symbol
	case KindPowered:
		return e.Inner.String() + "^" + formatExponent(e.Exponent)
	case KindComposite:
		parts := make([]string, len(e.Terms))
		for i, t := range e.Terms {
			parts[i] = t.String()
		}
		return strings.Join(parts, "*")
	}
	return e.Raw
}

// Components returns the composite's terms, or the expression itself.
func (e Expr) Components() []Expr {
	if e.Kind == KindComposite {
		return e.Terms
	}
	return []Expr{e}
}

// Family returns the registry family the expression's base unit belongs to.
// Composites have no single family.
func (e Expr) Family() *Family {
	switch e.Kind {
	case KindSimple, KindPrefixed:
		return e.family
	case KindPowered:
		return e.Inner.family
	}
	return nil
}

func formatExponent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
