package report

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/dynstab/internal/metrics"
)

func TestFinite(t *testing.T) {
	xs := []float64{0, 1, 2, 3}
	ys := []float64{math.NaN(), 1, math.Inf(1), 3}
	fx, fy := Finite(xs, ys)
	if len(fx) != 2 || len(fy) != 2 {
		t.Fatalf("expected 2 finite points, got %d/%d", len(fx), len(fy))
	}
	if fx[0] != 1 || fy[1] != 3 {
		t.Errorf("unexpected points %v %v", fx, fy)
	}
}

func TestGraph(t *testing.T) {
	times := []float64{0, 0.5, 1, 1.5}
	values := []float64{math.NaN(), 0.1, 0.2, 0.15}

	out, err := Graph("dr", "unitless", times, values, GraphOptions{Width: 40, Height: 5})
	if err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	if !strings.Contains(out, "dr [unitless]") {
		t.Errorf("expected caption in graph, got:\n%s", out)
	}
	if !strings.Contains(out, "t=0.50s..1.50s") {
		t.Errorf("expected time span in caption, got:\n%s", out)
	}
}

func TestGraphNoData(t *testing.T) {
	_, err := Graph("vf", "m*s^-1", []float64{0, 1}, []float64{math.NaN(), math.NaN()}, DefaultGraphOptions())
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestSegments(t *testing.T) {
	nan := math.NaN()
	segs := segments([]float64{0, 1, 2, 3, 4, 5}, []float64{1, 2, nan, 3, nan, 4})
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}
	if len(segs[0]) != 2 || len(segs[1]) != 1 || len(segs[2]) != 1 {
		t.Errorf("unexpected segment lengths %d %d %d", len(segs[0]), len(segs[1]), len(segs[2]))
	}
}

func TestChartWritePNG(t *testing.T) {
	c := Chart{
		Title:  "dynamic stability",
		XLabel: "time (s)",
		YLabel: "dr",
		Lines: []Line{
			{Label: "dr", X: []float64{0, 1, 2, 3}, Y: []float64{math.NaN(), 0.1, 0.2, 0.12}},
		},
		Marks:    map[string]float64{"launch_rod": 0.5, "apogee": math.NaN()},
		WidthIn:  4,
		HeightIn: 3,
		DPI:      50,
	}

	var buf bytes.Buffer
	if err := c.WritePNG(&buf); err != nil {
		t.Fatalf("write png failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 150 {
		t.Errorf("expected 200x150 image, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestChartSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "q.png")
	c := Chart{Title: "q", Lines: []Line{{Label: "q", X: []float64{0, 1}, Y: []float64{10, 20}}}, DPI: 40}
	if err := c.SavePNG(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("png not created: %v", err)
	}
}

func TestChartNoData(t *testing.T) {
	c := Chart{Lines: []Line{{Label: "vf", X: []float64{0, 1}, Y: []float64{math.NaN(), math.NaN()}}}}
	if err := c.WritePNG(&bytes.Buffer{}); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestSummaryTable(t *testing.T) {
	out := SummaryTable(map[string]float64{
		"max_dr":       0.25,
		"burnout_time": math.NaN(),
	}, func(name string) string {
		if name == "burnout_time" {
			return "s"
		}
		return "unitless"
	})

	for _, want := range []string{"METRIC", "max_dr", "0.25", "burnout_time", "n/a", "unitless"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in table:\n%s", want, out)
		}
	}
	if strings.Index(out, "burnout_time") > strings.Index(out, "max_dr") {
		t.Error("expected rows sorted by name")
	}
}

func TestStatsTable(t *testing.T) {
	out := StatsTable([]metrics.Stat{{Name: "max_q", Mean: 1500, Std: 12.5, Count: 3}})
	for _, want := range []string{"MEAN", "max_q", "1500", "12.5", "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in table:\n%s", want, out)
		}
	}
}

func TestHeaderAndRuns(t *testing.T) {
	h := Header("flight", []KV{{Label: "samples", Value: "42"}})
	if !strings.Contains(h, "flight") || !strings.Contains(h, "42") {
		t.Errorf("unexpected header:\n%s", h)
	}
	r := RunsTable([]RunRow{{ID: "flight_1", Name: "flight", Samples: 10, Ascent: 4}})
	if !strings.Contains(r, "flight_1") || !strings.Contains(r, "ASCENT") {
		t.Errorf("unexpected runs table:\n%s", r)
	}
	if !strings.Contains(Warning("no fin set"), "no fin set") {
		t.Error("expected warning text")
	}
	if FormatValue(math.NaN()) != "n/a" || FormatValue(2) != "2" {
		t.Error("unexpected FormatValue output")
	}
}
