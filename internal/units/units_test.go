package units

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func approx(a, b, rel float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= rel*math.Max(math.Abs(a), math.Abs(b))
}

func TestRoundTripAllFamilies(t *testing.T) {
	values := []float64{-40, 0, 1, 12.5, 1e4}
	for _, f := range Families() {
		for _, a := range f.Symbols() {
			for _, b := range f.Symbols() {
				for _, x := range values {
					y, err := Convert(x, a, b)
					if err != nil {
						t.Fatalf("%s -> %s: %v", a, b, err)
					}
					back, err := Convert(y, b, a)
					if err != nil {
						t.Fatalf("%s -> %s: %v", b, a, err)
					}
					if math.Abs(back-x) > 1e-9*math.Max(1, math.Abs(x)) {
						t.Errorf("%s -> %s -> %s: expected %v, got %v", a, b, a, x, back)
					}
				}
			}
		}
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		from, to string
		want     float64
	}{
		{"kilometre to inch", 1, "km", "in", 1000 / 0.0254},
		{"square millimetre to square inch", 1, "mm^2", "in^2", 1e-6 / (0.0254 * 0.0254)},
		{"absolute zero", -273.15, "C", "K", 0},
		{"freezing point", 32, "F", "C", 0},
		{"boiling point", 100, "C", "F", 212},
		{"inch to centimetre", 1, "in", "cm", 2.54},
		{"millibar to pascal", 1, "mbar", "Pa", 100},
		{"inertia", 1, "lb*ft^2", "kg*m^2", 0.45359237 * 0.3048 * 0.3048},
		{"litre to cubic centimetre", 1, "L", "cm^3", 1000},
		{"cubic metre to cubic centimetre", 1, "m^3", "cm^3", 1e6},
		{"feet per second", 1, "ft*s^-1", "m*s^-1", 0.3048},
		{"square inch area", 1, "in^2", "m^2", 6.4516e-4},
		{"revolutions", 1, "rot", "deg", 360},
		{"case insensitive", 1, "KM", "M", 1000},
		{"decametre before deci", 1, "dam", "m", 10},
		{"parenthesised composite", 2, "(kg)*(m^-2)", "g*m^-2", 2000},
		{"real exponent", 4, "m^0.5", "cm^0.5", 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.value, tt.from, tt.to)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !approx(got, tt.want, 1e-9) && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFahrenheitToKelvin(t *testing.T) {
	got, err := Convert(59, "F", "K")
	if err != nil {
		t.Fatal(err)
	}
	want := (59 + 459.67) / 1.8
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPoweredOffsetUnit(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		from, to string
		want     float64
	}{
		{"celsius to first power", 0, "C^1", "K^1", 273.15},
		{"celsius to plain kelvin", 0, "C^1", "K", 273.15},
		{"kelvin to fahrenheit to first power", 273.15, "K", "F^1", 32},
		{"squared celsius is an interval", 1, "C^2", "K^2", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.value, tt.from, tt.to)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCompositeOrderSensitive(t *testing.T) {
	if _, err := Convert(1, "kg*m^-2*s", "lb*in^-2*s"); err != nil {
		t.Fatalf("expected same-order composite to convert, got %v", err)
	}

	_, err := Convert(1, "kg*m^-2*s", "s*lb*in^-2")
	if !errors.Is(err, ErrIncompatible) {
		t.Fatalf("expected ErrIncompatible, got %v", err)
	}
	var ie *IncompatibleUnitsError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *IncompatibleUnitsError, got %T", err)
	}
	if ie.From != "kg*m^-2*s" || ie.To != "s*lb*in^-2" {
		t.Errorf("unexpected error units %q -> %q", ie.From, ie.To)
	}
}

func TestIncompatible(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		unknown  bool
	}{
		{"different families", "kg", "m", false},
		{"component count", "kg*m", "kg", false},
		{"power mismatch", "m^2", "m", false},
		{"offset unit against length", "C", "in", false},
		{"unknown source", "furlong", "m", true},
		{"unknown target", "m", "cubit", true},
		{"unknown prefix remainder", "kxyz", "m", true},
		{"nested power", "m^2^2", "m^4", true},
		{"empty component", "kg**m", "kg*m", true},
		{"nan exponent", "m^NaN", "m^NaN", true},
		{"infinite exponent", "m^Inf", "m^Inf", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(1, tt.from, tt.to)
			if !errors.Is(err, ErrIncompatible) {
				t.Fatalf("expected ErrIncompatible, got %v", err)
			}
			if got := errors.Is(err, ErrUnknownUnit); got != tt.unknown {
				t.Errorf("expected unknown=%v, got %v (%v)", tt.unknown, got, err)
			}
			if Validate(tt.from, tt.to) {
				t.Errorf("expected Validate(%q, %q) to be false", tt.from, tt.to)
			}
		})
	}
}

func TestConvertSliceAndGrid(t *testing.T) {
	in := []float64{0, 1, 2.5}
	out, err := ConvertSlice(in, "ft", "in")
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 12, 30}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Errorf("index %d: expected %v, got %v", i, want[i], out[i])
		}
	}
	if in[1] != 1 {
		t.Error("input slice was modified")
	}

	grid, err := ConvertGrid([][]float64{{0, 100}, {-40}}, "C", "F")
	if err != nil {
		t.Fatal(err)
	}
	if len(grid) != 2 || len(grid[0]) != 2 || len(grid[1]) != 1 {
		t.Fatalf("shape not preserved: %v", grid)
	}
	if math.Abs(grid[0][1]-212) > 1e-9 || math.Abs(grid[1][0]+40) > 1e-9 {
		t.Errorf("unexpected grid values %v", grid)
	}
}

func TestConversionInverse(t *testing.T) {
	c, err := NewConversion("F", "C")
	if err != nil {
		t.Fatal(err)
	}
	inv := c.Inverse()
	if got := inv.Apply(c.Apply(98.6)); math.Abs(got-98.6) > 1e-9 {
		t.Errorf("expected 98.6, got %v", got)
	}
	if inv.From != "C" || inv.To != "F" {
		t.Errorf("unexpected inverse units %q -> %q", inv.From, inv.To)
	}
}

func TestCompatibleUnits(t *testing.T) {
	tests := []struct {
		unit string
		want []string
	}{
		{"in", []string{"m", "in", "ft", "mi"}},
		{"km^2", []string{"m^2", "in^2", "ft^2", "mi^2"}},
		{"N*hr", []string{"N*s", "N*min", "N*hr", "lbf*s", "lbf*min", "lbf*hr"}},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			got, err := CompatibleUnits(tt.unit)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			for _, u := range got {
				if !Validate(tt.unit, u) {
					t.Errorf("listed unit %q does not convert from %q", u, tt.unit)
				}
			}
		})
	}

	if _, err := CompatibleUnits("parsec"); !errors.Is(err, ErrUnknownUnit) {
		t.Errorf("expected ErrUnknownUnit, got %v", err)
	}
}

func TestPreferredUnit(t *testing.T) {
	tests := []struct {
		unit, want string
	}{
		{"m", "ft"},
		{"km", "ft"},
		{"kg", "lb"},
		{"Pa", "psi"},
		{"rad", "deg"},
		{"J", "J"},
		{"unitless", "unitless"},
		{"kg*m^2", "lb*ft^2"},
		{"rad*s^-1", "deg*s^-1"},
		{"furlong", "furlong"},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			if got := PreferredUnit(tt.unit); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseKinds(t *testing.T) {
	tests := []struct {
		token string
		kind  Kind
		str   string
	}{
		{"in", KindSimple, "in"},
		{"m^3", KindSimple, "m^3"},
		{"km", KindPrefixed, "km"},
		{"in^-2", KindPowered, "in^-2"},
		{"kg*m^2", KindComposite, "kg*m^2"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			e, err := Parse(tt.token)
			if err != nil {
				t.Fatal(err)
			}
			if e.Kind != tt.kind {
				t.Errorf("expected %v, got %v", tt.kind, e.Kind)
			}
			if e.String() != tt.str {
				t.Errorf("expected %q, got %q", tt.str, e.String())
			}
		})
	}
}

func TestAvailable(t *testing.T) {
	all := Available()
	seen := make(map[string]bool, len(all))
	for _, u := range all {
		seen[u] = true
	}
	for _, u := range []string{"m", "L", "lbf", "s", "kg", "psi", "F", "J", "deg", "unitless"} {
		if !seen[u] {
			t.Errorf("expected %q in available units", u)
		}
	}
}
