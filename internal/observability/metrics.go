// Package observability exposes reduction progress as Prometheus metrics.
package observability

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/dynstab/internal/pipeline"
	"github.com/san-kum/dynstab/internal/stability"
)

// ReductionCollector bundles the reduction metrics and satisfies
// pipeline.Observer and pipeline.RunObserver, so it can be attached to a
// Runner, an Ensemble or a stream Listener.
type ReductionCollector struct {
	gatherer prometheus.Gatherer

	Samples      *prometheus.CounterVec
	NaNMetrics   *prometheus.CounterVec
	Runs         *prometheus.CounterVec
	RunDurations prometheus.Histogram
	LastSummary  *prometheus.GaugeVec
}

var (
	_ pipeline.Observer    = (*ReductionCollector)(nil)
	_ pipeline.RunObserver = (*ReductionCollector)(nil)
)

// NewReductionCollector registers the reduction metrics against reg,
// defaulting to the global Prometheus registry when nil.
func NewReductionCollector(reg prometheus.Registerer) (*ReductionCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	samples, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dynstab_samples_total",
		Help: "Samples reduced, labeled by flight phase.",
	}, []string{"phase"}), "dynstab_samples_total")
	if err != nil {
		return nil, err
	}

	nans, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dynstab_nan_metrics_total",
		Help: "Ascent samples whose metric came out NaN, labeled by field.",
	}, []string{"field"}), "dynstab_nan_metrics_total")
	if err != nil {
		return nil, err
	}

	runs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dynstab_runs_total",
		Help: "Completed runs, labeled by whether flutter velocities were available.",
	}, []string{"flutter"}), "dynstab_runs_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dynstab_run_duration_seconds",
		Help:    "Wall time spent reducing one run.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}), "dynstab_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	summary, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dynstab_run_summary",
		Help: "Summary metrics of the most recent run, labeled by run and metric.",
	}, []string{"run", "metric"}), "dynstab_run_summary")
	if err != nil {
		return nil, err
	}

	return &ReductionCollector{
		gatherer:     gatherer,
		Samples:      samples,
		NaNMetrics:   nans,
		Runs:         runs,
		RunDurations: durations,
		LastSummary:  summary,
	}, nil
}

func (c *ReductionCollector) OnSample(_ string, _ stability.Sample, m stability.Metrics) {
	if c == nil {
		return
	}
	c.Samples.WithLabelValues(m.Phase.String()).Inc()
}

func (c *ReductionCollector) OnRunDone(r *pipeline.Result) {
	if c == nil || r == nil {
		return
	}
	for _, m := range r.Metrics {
		if !m.Applicable() {
			continue
		}
		for _, f := range r.Fields {
			if v, ok := m.Value(f.Name); ok && math.IsNaN(v) {
				c.NaNMetrics.WithLabelValues(f.Name).Inc()
			}
		}
	}

	flutter := "ok"
	if r.FlutterErr != nil {
		flutter = "unavailable"
	}
	c.Runs.WithLabelValues(flutter).Inc()
	c.RunDurations.Observe(r.Elapsed.Seconds())

	for name, v := range r.Summary {
		if math.IsNaN(v) {
			continue
		}
		c.LastSummary.WithLabelValues(r.Name, name).Set(v)
	}
}

// WriteTextfile writes the current metrics in the text exposition format,
// for pickup by a node exporter textfile collector.
func (c *ReductionCollector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("observability: write %s: %w", path, err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
