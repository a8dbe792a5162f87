// Package aero holds aerodynamic coefficient tables sampled over Mach number
// and interpolates them at the Mach numbers met during flight.
//
// Columns are addressed by name. The aggregate normal-force slope and centre
// of pressure live in [ColumnCNa] and [ColumnCP]; each aerodynamic component
// contributes a pair of columns, "cna_<name>" and "cp_<name>".
//
// A [Table] is immutable after construction and safe for concurrent use.
package aero

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	ColumnCNa = "cna"
	ColumnCP  = "cp"

	prefixCNa = "cna_"
	prefixCP  = "cp_"
)

var (
	// ErrUnsorted indicates Mach numbers that decrease between rows.
	ErrUnsorted = errors.New("aero: mach column is not non-decreasing")

	// ErrShape indicates a row whose value count differs from the column count.
	ErrShape = errors.New("aero: row does not match column count")

	// ErrUnknownColumn indicates a lookup of a column the table does not hold.
	ErrUnknownColumn = errors.New("aero: unknown column")
)

// Sample is one table row: a Mach number and one value per column.
type Sample struct {
	Mach   float64
	Values []float64
}

// Component is one aerodynamic component resolved at a Mach number.
type Component struct {
	Name string
	CNa  float64
	CP   float64
}

// Table is a Mach-indexed set of named aerodynamic columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Sample
}

// NewTable validates and copies the given rows. Column names are matched
// case-insensitively.
func NewTable(columns []string, rows []Sample) (*Table, error) {
	t := &Table{
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
		rows:    make([]Sample, len(rows)),
	}
	for i, c := range columns {
		name := strings.ToLower(strings.TrimSpace(c))
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("aero: duplicate column %q", c)
		}
		t.columns[i] = name
		t.index[name] = i
	}

	for i, r := range rows {
		if len(r.Values) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(r.Values), len(columns))
		}
		if math.IsNaN(r.Mach) {
			return nil, fmt.Errorf("%w: row %d has NaN mach", ErrUnsorted, i)
		}
		if i > 0 && r.Mach < rows[i-1].Mach {
			return nil, fmt.Errorf("%w: row %d mach %g after %g", ErrUnsorted, i, r.Mach, rows[i-1].Mach)
		}
		vals := make([]float64, len(r.Values))
		copy(vals, r.Values)
		t.rows[i] = Sample{Mach: r.Mach, Values: vals}
	}
	return t, nil
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) Has(column string) bool {
	_, ok := t.index[strings.ToLower(column)]
	return ok
}

// MachRange returns the smallest and largest sampled Mach numbers.
func (t *Table) MachRange() (lo, hi float64) {
	if len(t.rows) == 0 {
		return math.NaN(), math.NaN()
	}
	return t.rows[0].Mach, t.rows[len(t.rows)-1].Mach
}

// ValueAt linearly interpolates column at mach. Mach numbers outside the
// sampled range take the nearest endpoint value. An empty table or a NaN
// Mach number yields NaN.
func (t *Table) ValueAt(mach float64, column string) (float64, error) {
	col, ok := t.index[strings.ToLower(column)]
	if !ok {
		return math.NaN(), fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	return t.valueAt(mach, col), nil
}

func (t *Table) valueAt(mach float64, col int) float64 {
	n := len(t.rows)
	if n == 0 || math.IsNaN(mach) {
		return math.NaN()
	}

	i := sort.Search(n, func(i int) bool { return t.rows[i].Mach >= mach })
	switch {
	case i == 0:
		return t.rows[0].Values[col]
	case i == n:
		return t.rows[n-1].Values[col]
	case t.rows[i].Mach == mach:
		return t.rows[i].Values[col]
	}

	lo, hi := t.rows[i-1], t.rows[i]
	frac := (mach - lo.Mach) / (hi.Mach - lo.Mach)
	return lo.Values[col] + frac*(hi.Values[col]-lo.Values[col])
}

// ComponentNames lists the components that have both a slope and a centre of
// pressure column, in column order.
func (t *Table) ComponentNames() []string {
	var names []string
	for _, c := range t.columns {
		name, ok := strings.CutPrefix(c, prefixCNa)
		if !ok || name == "" {
			continue
		}
		if _, has := t.index[prefixCP+name]; has {
			names = append(names, name)
		}
	}
	return names
}

// ComponentsAt resolves every component at mach.
func (t *Table) ComponentsAt(mach float64) []Component {
	names := t.ComponentNames()
	out := make([]Component, len(names))
	for i, name := range names {
		out[i] = Component{
			Name: name,
			CNa:  t.valueAt(mach, t.index[prefixCNa+name]),
			CP:   t.valueAt(mach, t.index[prefixCP+name]),
		}
	}
	return out
}

// AggregateAt returns the whole-vehicle slope and centre of pressure when
// the table carries the aggregate columns.
func (t *Table) AggregateAt(mach float64) (cna, cp float64, ok bool) {
	ci, okA := t.index[ColumnCNa]
	pi, okB := t.index[ColumnCP]
	if !okA || !okB {
		return math.NaN(), math.NaN(), false
	}
	return t.valueAt(mach, ci), t.valueAt(mach, pi), true
}

// MapColumns returns a copy of the table with fn applied to every value of
// the columns selected by match. It is used to normalize units on ingest.
func (t *Table) MapColumns(match func(column string) bool, fn func(float64) float64) *Table {
	out := &Table{columns: t.Columns(), index: t.index, rows: make([]Sample, len(t.rows))}
	for i, r := range t.rows {
		vals := make([]float64, len(r.Values))
		for j, v := range r.Values {
			if match(t.columns[j]) {
				v = fn(v)
			}
			vals[j] = v
		}
		out.rows[i] = Sample{Mach: r.Mach, Values: vals}
	}
	return out
}

// IsCPColumn reports whether column holds a centre-of-pressure location.
func IsCPColumn(column string) bool {
	c := strings.ToLower(column)
	return c == ColumnCP || strings.HasPrefix(c, prefixCP)
}
