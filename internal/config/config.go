package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynstab/internal/aero"
	"github.com/san-kum/dynstab/internal/ingest"
	"github.com/san-kum/dynstab/internal/phase"
	"github.com/san-kum/dynstab/internal/stability"
	"github.com/san-kum/dynstab/internal/units"
)

const (
	DefaultDataDir      = ".dynstab"
	DefaultLengthUnit   = "m"
	DefaultSafetyFactor = stability.DefaultSafetyFactor
	DefaultConcurrency  = 4
)

type Config struct {
	Name        string               `yaml:"name"`
	Rocket      RocketConfig         `yaml:"rocket"`
	Events      EventsConfig         `yaml:"events"`
	Convention  stability.Convention `yaml:"convention"`
	Flutter     FlutterConfig        `yaml:"flutter"`
	Input       InputConfig          `yaml:"input"`
	Display     DisplayConfig        `yaml:"display"`
	DataDir     string               `yaml:"data_dir"`
	Concurrency int                  `yaml:"concurrency"`
}

// RocketConfig lengths are in LengthUnit.
type RocketConfig struct {
	LengthUnit string             `yaml:"length_unit"`
	Length     float64            `yaml:"length"`
	NozzleExit float64            `yaml:"nozzle_exit"`
	FinSets    []stability.FinSet `yaml:"fin_sets"`
}

// EventsConfig holds boundary event times in seconds. A nil apogee is
// detected from the vertical velocity of the recorded series.
type EventsConfig struct {
	LaunchRod *float64 `yaml:"launch_rod"`
	Apogee    *float64 `yaml:"apogee"`
}

type FlutterConfig struct {
	SafetyFactor float64              `yaml:"safety_factor"`
	Materials    []stability.Material `yaml:"materials"`
}

type InputConfig struct {
	Columns ingest.Columns     `yaml:"columns"`
	Units   ingest.Units       `yaml:"units"`
	Aero    ingest.AeroOptions `yaml:"aero"`
}

// DisplayConfig selects output units. Units maps a metric field to a unit;
// Preferred converts every other field to its family's preferred unit.
type DisplayConfig struct {
	Preferred bool              `yaml:"preferred"`
	Units     map[string]string `yaml:"units"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "rocket",
		Rocket: RocketConfig{
			LengthUnit: DefaultLengthUnit,
		},
		Convention: stability.DefaultConvention(),
		Flutter: FlutterConfig{
			SafetyFactor: DefaultSafetyFactor,
			Materials:    stability.DefaultMaterials(),
		},
		Input: InputConfig{
			Columns: ingest.DefaultColumns(),
			Units:   ingest.DefaultUnits(),
			Aero:    ingest.DefaultAeroOptions(),
		},
		DataDir:     DefaultDataDir,
		Concurrency: DefaultConcurrency,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks conventions, units and column indices.
func (c *Config) Validate() error {
	if err := c.Convention.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !units.Validate(c.lengthUnit(), "m") {
		return fmt.Errorf("config: rocket length unit %q is not a length", c.Rocket.LengthUnit)
	}
	if err := c.Input.Columns.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Input.Units.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Input.Aero.LengthUnit != "" && !units.Validate(c.Input.Aero.LengthUnit, "m") {
		return fmt.Errorf("config: aero length unit %q is not a length", c.Input.Aero.LengthUnit)
	}
	for _, m := range c.Flutter.Materials {
		if m.Name == "" || m.ShearModulus <= 0 {
			return fmt.Errorf("config: flutter material %q needs a name and positive shear modulus", m.Name)
		}
	}
	return nil
}

func (c *Config) lengthUnit() string {
	if c.Rocket.LengthUnit == "" {
		return DefaultLengthUnit
	}
	return c.Rocket.LengthUnit
}

// PhaseEvents resolves event times. Missing times fall back to the given
// detected values; an undetected launch rod means ascent starts with the
// first sample.
func (c *Config) PhaseEvents(detectedLaunch, detectedApogee float64) phase.Events {
	ev := phase.Events{LaunchRod: detectedLaunch, Apogee: detectedApogee}
	if c.Events.LaunchRod != nil {
		ev.LaunchRod = *c.Events.LaunchRod
	}
	if c.Events.Apogee != nil {
		ev.Apogee = *c.Events.Apogee
	}
	if math.IsNaN(ev.LaunchRod) {
		ev.LaunchRod = math.Inf(-1)
	}
	return ev
}

// Stability builds the calculator configuration, converting rocket
// geometry to metres.
func (c *Config) Stability(tbl *aero.Table, ev phase.Events) (stability.Config, error) {
	toM, err := units.NewConversion(c.lengthUnit(), "m")
	if err != nil {
		return stability.Config{}, fmt.Errorf("config: %w", err)
	}

	fins := make([]stability.FinSet, len(c.Rocket.FinSets))
	for i, f := range c.Rocket.FinSets {
		fins[i] = stability.FinSet{
			Name:      f.Name,
			RootChord: toM.Apply(f.RootChord),
			TipChord:  toM.Apply(f.TipChord),
			Thickness: toM.Apply(f.Thickness),
			Span:      toM.Apply(f.Span),
		}
	}

	return stability.Config{
		Geometry: stability.Geometry{
			Length:  toM.Apply(c.Rocket.Length),
			FinSets: fins,
		},
		NozzleExit:   toM.Apply(c.Rocket.NozzleExit),
		Events:       ev,
		Convention:   c.Convention.WithDefaults(),
		Materials:    c.Flutter.Materials,
		SafetyFactor: c.Flutter.SafetyFactor,
		Table:        tbl,
	}, nil
}

// DisplayUnit returns the unit a field should be shown in.
func (c *Config) DisplayUnit(f stability.Field) string {
	if u, ok := c.Display.Units[f.Name]; ok {
		return u
	}
	if c.Display.Preferred {
		return units.PreferredUnit(f.Unit)
	}
	return f.Unit
}
