package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/dynstab/internal/phase"
	"github.com/san-kum/dynstab/internal/pipeline"
	"github.com/san-kum/dynstab/internal/stability"
)

func testResult(name string) *pipeline.Result {
	nan := math.NaN()
	return &pipeline.Result{
		Name: name,
		Fields: []stability.Field{
			{Name: "q", Unit: "Pa"},
			{Name: "dr", Unit: "unitless"},
		},
		Metrics: []stability.Metrics{
			{Time: 0, Phase: phase.PreLaunchRod, Q: nan, DR: nan},
			{Time: 0.5, Phase: phase.AirStabilizedAscent, Q: 6894.7572931783, DR: 0.12},
		},
		Summary: map[string]float64{"max_dr": 0.12, "burnout_time": nan},
		Events:  phase.Events{LaunchRod: 0.3, Apogee: nan},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())

	runID, err := st.Save(testResult("test"), SaveOptions{
		Inputs:     Inputs{Series: "flight.csv", Aero: "aero.csv"},
		Convention: stability.DefaultConvention(),
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", meta.Name)
	}
	if meta.Samples != 2 || meta.Ascent != 1 {
		t.Errorf("expected 2 samples / 1 ascent, got %d / %d", meta.Samples, meta.Ascent)
	}
	if meta.Summary["max_dr"] != 0.12 {
		t.Errorf("expected max_dr 0.12, got %v", meta.Summary["max_dr"])
	}
	if !math.IsNaN(float64(meta.Summary["burnout_time"])) || !math.IsNaN(float64(meta.Events.Apogee)) {
		t.Error("expected NaN values to round trip through null")
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", series.Len())
	}
	q, ok := series.Column("q")
	if !ok || !math.IsNaN(q[0]) || q[1] != 6894.7572931783 {
		t.Errorf("unexpected q column %v", q)
	}
	if series.Phases[1] != phase.AirStabilizedAscent {
		t.Errorf("expected ascent phase, got %v", series.Phases[1])
	}
}

func TestStoreList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "runs"))

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	a, err := st.Save(testResult("same"), SaveOptions{Sweep: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := st.Save(testResult("same"), SaveOptions{Sweep: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("expected distinct run ids, got %s twice", a)
	}
	if _, err := st.Save(testResult("other"), SaveOptions{}); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}

	sweep, err := st.Sweep("s1")
	if err != nil || len(sweep) != 2 {
		t.Errorf("expected 2 sweep runs, got %d (%v)", len(sweep), err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(testResult("test"), SaveOptions{})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	data, err := os.ReadFile(filepath.Join(runDir, "metrics.csv"))
	if err != nil {
		t.Fatal("metrics.csv not created")
	}
	if !strings.HasPrefix(string(data), "time,phase,q,dr\n") {
		t.Errorf("unexpected header in %q", string(data))
	}
}

func TestLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadSeries("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(testResult("test"), SaveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	meta, _ := st.Load(runID)
	series, _ := st.LoadSeries(runID)

	conv, used, err := Convert(meta, series, func(f stability.Field) string {
		if f.Name == "q" {
			return "psi"
		}
		return f.Unit
	})
	if err != nil {
		t.Fatal(err)
	}
	q, _ := conv.Column("q")
	if math.Abs(q[1]-1) > 1e-9 {
		t.Errorf("expected 1 psi, got %v", q[1])
	}
	if used["q"] != "psi" || used["dr"] != "unitless" {
		t.Errorf("unexpected units %v", used)
	}

	var csvOut bytes.Buffer
	if err := ExportCSV(&csvOut, conv, used); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(csvOut.String(), "time [s],phase,q [psi],dr [unitless]\n") {
		t.Errorf("unexpected csv header %q", csvOut.String())
	}

	var jsonOut bytes.Buffer
	if err := ExportJSON(&jsonOut, meta, conv, used); err != nil {
		t.Fatal(err)
	}
	var decoded ExportData
	if err := json.Unmarshal(jsonOut.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(decoded.Series["dr"]) != 2 || !math.IsNaN(float64(decoded.Series["dr"][0])) {
		t.Errorf("unexpected dr series %v", decoded.Series["dr"])
	}

	if _, _, err := Convert(meta, series, func(stability.Field) string { return "kg" }); err == nil {
		t.Error("expected conversion error")
	}
}
