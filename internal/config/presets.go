package config

import (
	"sort"

	"github.com/san-kum/dynstab/internal/ingest"
	"github.com/san-kum/dynstab/internal/stability"
)

// Presets bundle a reduction convention with the input layout it is used
// with.
var Presets = map[string]*Config{
	// Live reduction inside the simulator: SI inputs, per-component
	// damping, angular frequency.
	"listener": {
		Name:       "listener",
		Convention: stability.Convention{NaturalFrequency: stability.FrequencyAngular, AeroDamping: stability.DampingPerComponent, CPCombine: stability.CPSum},
		Input:      InputConfig{Columns: ingest.DefaultColumns(), Units: ingest.SIUnits(), Aero: ingest.AeroOptions{LengthUnit: "m"}},
	},
	// Post-processing of an OpenRocket CSV export with an aero table in
	// inches, natural frequency in Hz.
	"postprocess": {
		Name:       "postprocess",
		Convention: stability.Convention{NaturalFrequency: stability.FrequencyHertz, AeroDamping: stability.DampingPerComponent, CPCombine: stability.CPSum},
		Input:      InputConfig{Columns: ingest.DefaultColumns(), Units: ingest.DefaultUnits(), Aero: ingest.DefaultAeroOptions()},
	},
	// Aggregate moment arms with a slope-weighted centre of pressure.
	"aggregate": {
		Name:       "aggregate",
		Convention: stability.Convention{NaturalFrequency: stability.FrequencyAngular, AeroDamping: stability.DampingAggregate, CPCombine: stability.CPWeighted},
		Input:      InputConfig{Columns: ingest.DefaultColumns(), Units: ingest.DefaultUnits(), Aero: ingest.DefaultAeroOptions()},
	},
	// Imperial display of every output column.
	"imperial": {
		Name:       "imperial",
		Convention: stability.DefaultConvention(),
		Input:      InputConfig{Columns: ingest.DefaultColumns(), Units: ingest.DefaultUnits(), Aero: ingest.DefaultAeroOptions()},
		Display:    DisplayConfig{Preferred: true},
	},
}

// GetPreset returns a copy of the named preset layered over DefaultConfig,
// or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Name = p.Name
	cfg.Convention = p.Convention
	cfg.Input = p.Input
	cfg.Display = p.Display
	return cfg
}

// ListPresets returns preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
