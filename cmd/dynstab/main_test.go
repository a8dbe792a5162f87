package main

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/dynstab/internal/stability"
)

func TestSummaryUnits(t *testing.T) {
	unitOf := summaryUnits([]stability.Field{
		{Name: "dr", Unit: "unitless"},
		{Name: "q", Unit: "Pa"},
		{Name: "nf", Unit: "rad*s^-1"},
	})

	tests := []struct {
		metric string
		want   string
	}{
		{"max_q", "Pa"},
		{"avg_nf", "rad*s^-1"},
		{"dr_at_launch_rod", "unitless"},
		{"burnout_time", "s"},
		{"stable_fraction", "unitless"},
		{"mystery", ""},
	}
	for _, tt := range tests {
		if got := unitOf(tt.metric); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.metric, tt.want, got)
		}
	}
}

func TestSeriesName(t *testing.T) {
	if got := seriesName("/data/flights/flight_03.csv"); got != "flight_03" {
		t.Errorf("expected flight_03, got %s", got)
	}
}

func TestLoadConfigFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&dataDir, "data", ".dynstab", "")
	cmd.Flags().Float64Var(&apogee, "apogee", 0, "")
	cmd.Flags().BoolVar(&preferred, "preferred", false, "")
	preset, configFile = "postprocess", ""
	unitOverrides = []string{"q=psi"}
	defer func() { preset, unitOverrides = "", nil }()

	if err := cmd.Flags().Parse([]string{"--apogee", "12.5", "--data", "runs"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Convention.NaturalFrequency != stability.FrequencyHertz {
		t.Errorf("expected hertz from preset, got %s", cfg.Convention.NaturalFrequency)
	}
	if cfg.Events.Apogee == nil || *cfg.Events.Apogee != 12.5 {
		t.Errorf("expected apogee override 12.5, got %v", cfg.Events.Apogee)
	}
	if cfg.Events.LaunchRod != nil {
		t.Error("expected launch rod left to detection")
	}
	if cfg.DataDir != "runs" {
		t.Errorf("expected data dir runs, got %s", cfg.DataDir)
	}
	if cfg.DisplayUnit(stability.Field{Name: "q", Unit: "Pa"}) != "psi" {
		t.Error("expected --unit override for q")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	preset = "nope"
	defer func() { preset = "" }()
	if _, err := loadConfig(cmd); err == nil {
		t.Error("expected unknown preset error")
	}

	preset = ""
	unitOverrides = []string{"q"}
	defer func() { unitOverrides = nil }()
	if _, err := loadConfig(cmd); err == nil {
		t.Error("expected invalid --unit error")
	}
}
