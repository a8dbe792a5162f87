// Package ingest reads recorded flight exports and aerodynamic coefficient
// tables into reduction inputs, normalizing every column to SI through the
// units package.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/dynstab/internal/logging"
	"github.com/san-kum/dynstab/internal/stability"
	"github.com/san-kum/dynstab/internal/units"
)

// ErrNoData indicates an input with no usable rows.
var ErrNoData = errors.New("ingest: no data rows")

// Columns are zero-based column indices in a recorded time series.
type Columns struct {
	Time             int `yaml:"time" json:"time"`
	CG               int `yaml:"cg" json:"cg"`
	Temperature      int `yaml:"temperature" json:"temperature"`
	Pressure         int `yaml:"pressure" json:"pressure"`
	VerticalVelocity int `yaml:"vertical_velocity" json:"vertical_velocity"`
	Velocity         int `yaml:"velocity" json:"velocity"`
	RefArea          int `yaml:"ref_area" json:"ref_area"`
	PropellantMass   int `yaml:"propellant_mass" json:"propellant_mass"`
	Inertia          int `yaml:"inertia" json:"inertia"`
}

// DefaultColumns matches a full OpenRocket CSV export.
func DefaultColumns() Columns {
	return Columns{
		Time:             0,
		CG:               24,
		Temperature:      49,
		Pressure:         50,
		VerticalVelocity: 2,
		Velocity:         4,
		RefArea:          45,
		PropellantMass:   20,
		Inertia:          21,
	}
}

func (c Columns) all() []int {
	return []int{c.Time, c.CG, c.Temperature, c.Pressure, c.VerticalVelocity, c.Velocity, c.RefArea, c.PropellantMass, c.Inertia}
}

func (c Columns) max() int {
	m := 0
	for _, v := range c.all() {
		m = max(m, v)
	}
	return m
}

// Validate rejects negative column indices.
func (c Columns) Validate() error {
	for _, v := range c.all() {
		if v < 0 {
			return fmt.Errorf("ingest: negative column index %d", v)
		}
	}
	return nil
}

// Units are the unit expressions each column is recorded in.
type Units struct {
	Time        string `yaml:"time" json:"time"`
	Length      string `yaml:"length" json:"length"`
	Temperature string `yaml:"temperature" json:"temperature"`
	Pressure    string `yaml:"pressure" json:"pressure"`
	Velocity    string `yaml:"velocity" json:"velocity"`
	Area        string `yaml:"area" json:"area"`
	Mass        string `yaml:"mass" json:"mass"`
	Inertia     string `yaml:"inertia" json:"inertia"`
}

// DefaultUnits are the imperial units of an OpenRocket export. Fahrenheit is
// converted exactly, (F-32)*5/9+273.15, not with the (F+459.7)/1.8 shortcut.
func DefaultUnits() Units {
	return Units{
		Time:        "s",
		Length:      "in",
		Temperature: "F",
		Pressure:    "mbar",
		Velocity:    "ft*s^-1",
		Area:        "in^2",
		Mass:        "lb",
		Inertia:     "lb*ft^2",
	}
}

// SIUnits leaves every column untouched.
func SIUnits() Units {
	return Units{
		Time:        "s",
		Length:      "m",
		Temperature: "K",
		Pressure:    "Pa",
		Velocity:    "m*s^-1",
		Area:        "m^2",
		Mass:        "kg",
		Inertia:     "kg*m^2",
	}
}

type converters struct {
	time, length, temp, pressure, velocity, area, mass, inertia *units.Conversion
}

func (u Units) build() (*converters, error) {
	c := &converters{}
	for _, p := range []struct {
		dst      **units.Conversion
		from, to string
	}{
		{&c.time, u.Time, "s"},
		{&c.length, u.Length, "m"},
		{&c.temp, u.Temperature, "K"},
		{&c.pressure, u.Pressure, "Pa"},
		{&c.velocity, u.Velocity, "m*s^-1"},
		{&c.area, u.Area, "m^2"},
		{&c.mass, u.Mass, "kg"},
		{&c.inertia, u.Inertia, "kg*m^2"},
	} {
		conv, err := units.NewConversion(p.from, p.to)
		if err != nil {
			return nil, fmt.Errorf("ingest: column units: %w", err)
		}
		*p.dst = conv
	}
	return c, nil
}

// Validate checks that every unit converts to its SI counterpart.
func (u Units) Validate() error {
	_, err := u.build()
	return err
}

// SeriesOptions controls how a recorded time series is read.
type SeriesOptions struct {
	Columns Columns
	Units   Units
}

func DefaultSeriesOptions() SeriesOptions {
	return SeriesOptions{Columns: DefaultColumns(), Units: DefaultUnits()}
}

// Series is a recorded run converted to SI reduction input.
type Series struct {
	Samples          []stability.Sample
	VerticalVelocity []float64
	Skipped          int
}

// ApogeeTime returns the time of the first sample whose vertical velocity
// drops to zero or below after having been positive, or NaN.
func (s *Series) ApogeeTime() float64 {
	climbing := false
	for i, vz := range s.VerticalVelocity {
		switch {
		case vz > 0:
			climbing = true
		case climbing && vz <= 0:
			return s.Samples[i].Time
		}
	}
	return math.NaN()
}

// LaunchTime returns the time of the first sample with positive vertical
// velocity, or NaN.
func (s *Series) LaunchTime() float64 {
	for i, vz := range s.VerticalVelocity {
		if vz > 0 {
			return s.Samples[i].Time
		}
	}
	return math.NaN()
}

// ReadSeriesFile opens path and reads it with ReadSeries.
func ReadSeriesFile(path string, opts SeriesOptions, logger *slog.Logger) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open series: %w", err)
	}
	defer f.Close()
	return ReadSeries(f, opts, logger)
}

// ReadSeries parses a comma separated time series. Lines starting with '#'
// are comments. Rows that are too short or hold a non-numeric value in a
// used column are skipped with a warning.
func ReadSeries(r io.Reader, opts SeriesOptions, logger *slog.Logger) (*Series, error) {
	logger = logging.OrDiscard(logger)
	if err := opts.Columns.Validate(); err != nil {
		return nil, err
	}
	conv, err := opts.Units.build()
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	cols := opts.Columns
	need := cols.max() + 1
	out := &Series{}

	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: read series: %w", err)
		}
		if len(rec) < need {
			logger.Warn("skipping short row", "line", line, "fields", len(rec), "want", need)
			out.Skipped++
			continue
		}

		vals, bad := parseColumns(rec, cols)
		if bad != "" {
			logger.Warn("skipping row with invalid value", "line", line, "column", bad)
			out.Skipped++
			continue
		}

		out.Samples = append(out.Samples, stability.Sample{
			Time:                conv.time.Apply(vals.time),
			CG:                  conv.length.Apply(vals.cg),
			Temperature:         conv.temp.Apply(vals.temp),
			Pressure:            conv.pressure.Apply(vals.pressure),
			Velocity:            conv.velocity.Apply(vals.velocity),
			RefArea:             conv.area.Apply(vals.area),
			PropellantMass:      conv.mass.Apply(vals.mass),
			LongitudinalInertia: conv.inertia.Apply(vals.inertia),
			Density:             math.NaN(),
			SoundSpeed:          math.NaN(),
			Mach:                math.NaN(),
		})
		out.VerticalVelocity = append(out.VerticalVelocity, conv.velocity.Apply(vals.vz))
	}

	if len(out.Samples) == 0 {
		return nil, ErrNoData
	}
	if out.Skipped > 0 {
		logger.Info("series read with skipped rows", "rows", len(out.Samples), "skipped", out.Skipped)
	}
	return out, nil
}

type rowValues struct {
	time, cg, temp, pressure, vz, velocity, area, mass, inertia float64
}

func parseColumns(rec []string, c Columns) (rowValues, string) {
	var v rowValues
	fields := []struct {
		name string
		idx  int
		dst  *float64
	}{
		{"time", c.Time, &v.time},
		{"cg", c.CG, &v.cg},
		{"temperature", c.Temperature, &v.temp},
		{"pressure", c.Pressure, &v.pressure},
		{"vertical_velocity", c.VerticalVelocity, &v.vz},
		{"velocity", c.Velocity, &v.velocity},
		{"ref_area", c.RefArea, &v.area},
		{"propellant_mass", c.PropellantMass, &v.mass},
		{"inertia", c.Inertia, &v.inertia},
	}
	for _, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(rec[f.idx]), 64)
		if err != nil {
			return v, f.name
		}
		*f.dst = x
	}
	return v, ""
}
