package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/dynstab/internal/aero"
	"github.com/san-kum/dynstab/internal/logging"
	"github.com/san-kum/dynstab/internal/units"
)

// AeroOptions controls how an aerodynamic coefficient table is read.
type AeroOptions struct {
	// LengthUnit is the unit of every centre-of-pressure column.
	LengthUnit string `yaml:"length_unit" json:"length_unit"`
}

func DefaultAeroOptions() AeroOptions {
	return AeroOptions{LengthUnit: "in"}
}

// ReadAeroFile opens path and reads it with ReadAero.
func ReadAeroFile(path string, opts AeroOptions, logger *slog.Logger) (*aero.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open aero table: %w", err)
	}
	defer f.Close()
	return ReadAero(f, opts, logger)
}

// ReadAero parses a comma separated coefficient table. The first row is a
// header whose first column is the Mach number; the remaining headers name
// the columns ("cna", "cp", "cna_fins", ...). Centre-of-pressure columns are
// converted from opts.LengthUnit to metres.
func ReadAero(r io.Reader, opts AeroOptions, logger *slog.Logger) (*aero.Table, error) {
	logger = logging.OrDiscard(logger)
	if opts.LengthUnit == "" {
		opts.LengthUnit = DefaultAeroOptions().LengthUnit
	}
	toMetres, err := units.NewConversion(opts.LengthUnit, "m")
	if err != nil {
		return nil, fmt.Errorf("ingest: aero length unit: %w", err)
	}

	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("ingest: read aero header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("ingest: aero header needs mach and at least one column, got %d", len(header))
	}
	columns := make([]string, len(header)-1)
	for i, h := range header[1:] {
		columns[i] = strings.TrimSpace(h)
	}

	var rows []aero.Sample
	skipped := 0
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: read aero table: %w", err)
		}
		row, ok := parseAeroRow(rec, len(header))
		if !ok {
			logger.Warn("skipping aero row", "line", line, "fields", len(rec))
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	tbl, err := aero.NewTable(columns, rows)
	if err != nil {
		return nil, err
	}
	logger.Debug("aero table read", "rows", tbl.Len(), "columns", len(columns), "skipped", skipped,
		"components", tbl.ComponentNames())
	return tbl.MapColumns(aero.IsCPColumn, toMetres.Apply), nil
}

func parseAeroRow(rec []string, width int) (aero.Sample, bool) {
	if len(rec) < width {
		return aero.Sample{}, false
	}
	vals := make([]float64, width)
	for i := 0; i < width; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
		if err != nil {
			return aero.Sample{}, false
		}
		vals[i] = v
	}
	return aero.Sample{Mach: vals[0], Values: vals[1:]}, true
}
