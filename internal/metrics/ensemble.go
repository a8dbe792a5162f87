package metrics

import (
	"math"
	"sort"
)

// Stat is a cross-run statistic of one summary metric.
type Stat struct {
	Name  string
	Mean  float64
	Std   float64
	Count int
}

// NaNMeanStd returns the mean and population standard deviation of the
// non-NaN values, and how many there were.
func NaNMeanStd(values []float64) (mean, std float64, n int) {
	var sum float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN(), math.NaN(), 0
	}
	mean = sum / float64(n)

	var sq float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(n)), n
}

// AcrossRuns combines per-run summaries into one Stat per metric name,
// sorted by name.
func AcrossRuns(summaries []map[string]float64) []Stat {
	byName := make(map[string][]float64)
	for _, s := range summaries {
		for k, v := range s {
			byName[k] = append(byName[k], v)
		}
	}

	names := make([]string, 0, len(byName))
	for k := range byName {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]Stat, 0, len(names))
	for _, name := range names {
		mean, std, n := NaNMeanStd(byName[name])
		out = append(out, Stat{Name: name, Mean: mean, Std: std, Count: n})
	}
	return out
}
