package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/dynstab/internal/stability"
)

// ExportData is the JSON export of one run.
type ExportData struct {
	Run    RunMetadata        `json:"run"`
	Units  map[string]string  `json:"units"`
	Times  []Float            `json:"times"`
	Phases []string           `json:"phases"`
	Series map[string][]Float `json:"series"`
}

// UnitFunc picks the output unit for a field.
type UnitFunc func(stability.Field) string

// Convert expresses every stored column in the unit chosen by unitOf and
// returns the converted series and the units used.
func Convert(meta *RunMetadata, series *Series, unitOf UnitFunc) (*Series, map[string]string, error) {
	out := &Series{
		Times:  series.Times,
		Phases: series.Phases,
		Fields: series.Fields,
		Values: make([][]float64, len(series.Fields)),
	}
	used := make(map[string]string, len(series.Fields))

	byName := make(map[string]stability.Field, len(meta.Fields))
	for _, f := range meta.Fields {
		byName[f.Name] = f
	}

	for i, name := range series.Fields {
		f, ok := byName[name]
		if !ok || unitOf == nil {
			out.Values[i] = series.Values[i]
			used[name] = f.Unit
			continue
		}
		to := unitOf(f)
		vals, err := f.Convert(series.Values[i], to)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: field %s: %w", name, err)
		}
		out.Values[i] = vals
		used[name] = to
	}
	return out, used, nil
}

// ExportJSON writes a run and its series as indented JSON. NaN values are
// written as null.
func ExportJSON(w io.Writer, meta *RunMetadata, series *Series, unitsUsed map[string]string) error {
	data := ExportData{
		Run:    *meta,
		Units:  unitsUsed,
		Times:  make([]Float, len(series.Times)),
		Phases: make([]string, len(series.Phases)),
		Series: make(map[string][]Float, len(series.Fields)),
	}
	for i, t := range series.Times {
		data.Times[i] = Float(t)
	}
	for i, p := range series.Phases {
		data.Phases[i] = p.String()
	}
	for i, name := range series.Fields {
		col := make([]Float, len(series.Values[i]))
		for j, v := range series.Values[i] {
			col[j] = Float(v)
		}
		data.Series[name] = col
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes the series with a "name [unit]" header row.
func ExportCSV(w io.Writer, series *Series, unitsUsed map[string]string) error {
	cw := csv.NewWriter(w)
	header := []string{"time [s]", "phase"}
	for _, name := range series.Fields {
		header = append(header, fmt.Sprintf("%s [%s]", name, unitsUsed[name]))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, t := range series.Times {
		row[0] = strconv.FormatFloat(t, 'g', -1, 64)
		row[1] = series.Phases[i].String()
		for j := range series.Fields {
			row[j+2] = strconv.FormatFloat(series.Values[j][i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
