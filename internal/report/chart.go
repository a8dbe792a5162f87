package report

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Line is one named series on a chart.
type Line struct {
	Label string
	X, Y  []float64
}

// Chart describes a PNG line chart.
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Lines  []Line

	// Marks draws a vertical line at each named time, e.g. launch-rod
	// clearance and apogee. NaN and infinite times are skipped.
	Marks map[string]float64

	WidthIn  float64
	HeightIn float64
	DPI      int
}

func (c *Chart) defaults() {
	if c.WidthIn <= 0 {
		c.WidthIn = 8
	}
	if c.HeightIn <= 0 {
		c.HeightIn = 6
	}
	if c.DPI <= 0 {
		c.DPI = 150
	}
}

// segments splits a series at non-finite values; plotter rejects NaN points.
func segments(xs, ys []float64) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for i := range ys {
		if i >= len(xs) {
			break
		}
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) || math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: xs[i], Y: ys[i]})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func (c *Chart) build() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(8)
	p.X.Padding = vg.Points(10)
	p.Y.Padding = vg.Points(10)
	p.Add(plotter.NewGrid())

	drawn := 0
	for i, l := range c.Lines {
		segs := segments(l.X, l.Y)
		for j, seg := range segs {
			line, err := plotter.NewLine(seg)
			if err != nil {
				return nil, fmt.Errorf("report: line %s: %w", l.Label, err)
			}
			line.LineStyle.Width = vg.Points(1.5)
			line.LineStyle.Color = plotutil.Color(i)
			p.Add(line)
			if j == 0 && l.Label != "" {
				p.Legend.Add(l.Label, line)
			}
			drawn++
		}
	}
	if drawn == 0 {
		return nil, ErrNoData
	}

	names := make([]string, 0, len(c.Marks))
	for name := range c.Marks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := c.Marks[name]
		if math.IsNaN(t) || math.IsInf(t, 0) {
			continue
		}
		vline, err := verticalLine(p, t)
		if err != nil {
			return nil, err
		}
		vline.LineStyle.Color = color.Gray{Y: 128}
		vline.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(vline)
		p.Legend.Add(name, vline)
	}
	p.Legend.Top = true
	return p, nil
}

func verticalLine(p *plot.Plot, x float64) (*plotter.Line, error) {
	lo, hi := p.Y.Min, p.Y.Max
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return plotter.NewLine(plotter.XYs{{X: x, Y: lo}, {X: x, Y: hi}})
}

// WritePNG renders the chart as PNG into w.
func (c Chart) WritePNG(w io.Writer) error {
	c.defaults()
	p, err := c.build()
	if err != nil {
		return err
	}

	canvas := vgimg.NewWith(
		vgimg.UseWH(vg.Length(c.WidthIn)*vg.Inch, vg.Length(c.HeightIn)*vg.Inch),
		vgimg.UseDPI(c.DPI),
	)
	p.Draw(draw.New(canvas))

	pngc := vgimg.PngCanvas{Canvas: canvas}
	if _, err := pngc.WriteTo(w); err != nil {
		return fmt.Errorf("report: write png: %w", err)
	}
	return nil
}

// SavePNG renders the chart to filename, creating its directory.
func (c Chart) SavePNG(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("report: create directory: %w", err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("report: create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := c.WritePNG(bw); err != nil {
		return err
	}
	return bw.Flush()
}
