package aero

import (
	"errors"
	"math"
	"testing"
)

func twoRowTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable(
		[]string{"CNa", "CP", "cna_nose", "cp_nose", "cna_fins", "cp_fins"},
		[]Sample{
			{Mach: 0.0, Values: []float64{2.0, 1.0, 2.0, 0.3, 0.0, 1.5}},
			{Mach: 1.0, Values: []float64{3.0, 1.2, 2.0, 0.3, 1.0, 1.7}},
		},
	)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	return tbl
}

func TestValueAt(t *testing.T) {
	tbl := twoRowTable(t)

	tests := []struct {
		name   string
		mach   float64
		column string
		want   float64
	}{
		{"midpoint slope", 0.5, "cna", 2.5},
		{"midpoint cp", 0.5, "cp", 1.1},
		{"exact row", 1.0, "cna", 3.0},
		{"below range clamps to first row", -0.3, "cna", 2.0},
		{"above range clamps to last row", 4.0, "cp", 1.2},
		{"case insensitive column", 0.25, "CNA_FINS", 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tbl.ValueAt(tt.mach, tt.column)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestValueAtDegenerate(t *testing.T) {
	tbl := twoRowTable(t)

	if _, err := tbl.ValueAt(0.5, "cd"); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}

	v, err := tbl.ValueAt(math.NaN(), "cna")
	if err != nil || !math.IsNaN(v) {
		t.Errorf("expected NaN for NaN mach, got %v (%v)", v, err)
	}

	empty, err := NewTable([]string{"cna"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := empty.ValueAt(0.5, "cna"); !math.IsNaN(v) {
		t.Errorf("expected NaN from empty table, got %v", v)
	}
}

func TestDuplicateMachStep(t *testing.T) {
	tbl, err := NewTable([]string{"cna"}, []Sample{
		{Mach: 0, Values: []float64{1}},
		{Mach: 1, Values: []float64{2}},
		{Mach: 1, Values: []float64{4}},
		{Mach: 2, Values: []float64{4}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := tbl.ValueAt(0.5, "cna"); math.Abs(v-1.5) > 1e-12 {
		t.Errorf("expected 1.5, got %v", v)
	}
	if v, _ := tbl.ValueAt(1.5, "cna"); math.Abs(v-4) > 1e-12 {
		t.Errorf("expected 4, got %v", v)
	}
}

func TestNewTableValidation(t *testing.T) {
	_, err := NewTable([]string{"cna"}, []Sample{
		{Mach: 1, Values: []float64{1}},
		{Mach: 0.5, Values: []float64{1}},
	})
	if !errors.Is(err, ErrUnsorted) {
		t.Errorf("expected ErrUnsorted, got %v", err)
	}

	_, err = NewTable([]string{"cna", "cp"}, []Sample{{Mach: 0, Values: []float64{1}}})
	if !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}

	if _, err = NewTable([]string{"cp", "CP"}, nil); err == nil {
		t.Error("expected duplicate column error")
	}
}

func TestNewTableCopiesRows(t *testing.T) {
	vals := []float64{2}
	tbl, err := NewTable([]string{"cna"}, []Sample{{Mach: 0, Values: vals}})
	if err != nil {
		t.Fatal(err)
	}
	vals[0] = 99
	if v, _ := tbl.ValueAt(0, "cna"); v != 2 {
		t.Errorf("table aliased caller slice: got %v", v)
	}
}

func TestComponentsAt(t *testing.T) {
	tbl := twoRowTable(t)

	comps := tbl.ComponentsAt(0.5)
	if len(comps) != 2 {
		t.Fatalf("expected 2 components, got %d", len(comps))
	}
	if comps[0].Name != "nose" || comps[1].Name != "fins" {
		t.Errorf("unexpected component order %q, %q", comps[0].Name, comps[1].Name)
	}
	if math.Abs(comps[1].CNa-0.5) > 1e-12 || math.Abs(comps[1].CP-1.6) > 1e-12 {
		t.Errorf("unexpected fins component %+v", comps[1])
	}

	cna, cp, ok := tbl.AggregateAt(0.5)
	if !ok {
		t.Fatal("expected aggregate columns")
	}
	if math.Abs(cna-2.5) > 1e-12 || math.Abs(cp-1.1) > 1e-12 {
		t.Errorf("expected aggregate (2.5, 1.1), got (%v, %v)", cna, cp)
	}
}

func TestMapColumns(t *testing.T) {
	tbl := twoRowTable(t)
	scaled := tbl.MapColumns(IsCPColumn, func(v float64) float64 { return v * 0.0254 })

	v, _ := scaled.ValueAt(0, "cp_fins")
	if math.Abs(v-1.5*0.0254) > 1e-12 {
		t.Errorf("expected scaled cp, got %v", v)
	}
	v, _ = scaled.ValueAt(0, "cna_nose")
	if v != 2.0 {
		t.Errorf("slope column should be untouched, got %v", v)
	}
	v, _ = tbl.ValueAt(0, "cp_fins")
	if v != 1.5 {
		t.Errorf("source table modified, got %v", v)
	}
}
