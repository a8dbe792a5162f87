// Package pipeline drives stability reduction over whole runs.
//
// A [Runner] reduces one ordered sample series with a fresh
// [stability.Calculator], feeding every reduced sample to summary metrics
// and observers. An [Ensemble] reduces independent runs concurrently, one
// Calculator per run.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/san-kum/dynstab/internal/logging"
	"github.com/san-kum/dynstab/internal/metrics"
	"github.com/san-kum/dynstab/internal/phase"
	"github.com/san-kum/dynstab/internal/stability"
)

const tracerName = "github.com/san-kum/dynstab/internal/pipeline"

// Observer sees every reduced sample. Observers shared by an Ensemble are
// called from several goroutines.
type Observer interface {
	OnSample(run string, s stability.Sample, m stability.Metrics)
}

// RunObserver is optionally implemented by observers that also want the
// finished run.
type RunObserver interface {
	OnRunDone(r *Result)
}

// Result is the output of reducing one run.
type Result struct {
	Name       string
	Fields     []stability.Field
	Metrics    []stability.Metrics
	Summary    map[string]float64
	Events     phase.Events
	FlutterErr error
	Elapsed    time.Duration
}

// Series returns the named field over the whole run.
func (r *Result) Series(field string) (times, values []float64) {
	times = make([]float64, len(r.Metrics))
	values = make([]float64, len(r.Metrics))
	for i, m := range r.Metrics {
		times[i] = m.Time
		values[i], _ = m.Value(field)
	}
	return times, values
}

// Ascent counts samples reduced in air-stabilized ascent.
func (r *Result) Ascent() int {
	n := 0
	for _, m := range r.Metrics {
		if m.Applicable() {
			n++
		}
	}
	return n
}

// Runner reduces recorded runs with a fresh Calculator per run.
type Runner struct {
	cfg        stability.Config
	newMetrics func(phase.Events) []metrics.Metric
	observers  []Observer
	logger     *slog.Logger
}

func New(cfg stability.Config, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		newMetrics: DefaultMetrics,
		observers:  make([]Observer, 0),
		logger:     logging.OrDiscard(logger),
	}
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// SetMetrics replaces the summary metrics built for each run.
func (r *Runner) SetMetrics(fn func(phase.Events) []metrics.Metric) { r.newMetrics = fn }

// DefaultMetrics is the standard summary plus values at launch-rod clearance.
func DefaultMetrics(ev phase.Events) []metrics.Metric {
	ms := metrics.Standard()
	for _, f := range []string{"dr", "sm", "q"} {
		ms = append(ms, metrics.NewAtTime(f, "launch_rod", ev.LaunchRod))
	}
	return ms
}

// Run reduces samples, which must be in non-decreasing time order. The
// context is checked between samples; on cancellation the partial result is
// returned with the context's error.
func (r *Runner) Run(ctx context.Context, name string, samples []stability.Sample) (res *Result, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run", name),
		attribute.Int("samples", len(samples)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("ascent", res.Ascent()))
		}
		span.End()
	}()

	start := time.Now()
	calc := stability.New(r.cfg)
	log := r.logger.With("run", name)

	res = &Result{
		Name:       name,
		Fields:     calc.Fields(),
		Metrics:    make([]stability.Metrics, 0, len(samples)),
		Summary:    make(map[string]float64),
		Events:     r.cfg.Events,
		FlutterErr: calc.FlutterErr(),
	}
	if res.FlutterErr != nil {
		log.Warn("flutter velocities unavailable", "err", res.FlutterErr)
	}

	ms := r.newMetrics(r.cfg.Events)
	for _, m := range ms {
		m.Reset()
	}

	for i, s := range samples {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		if i > 0 && s.Time < samples[i-1].Time {
			return res, &SampleError{Run: name, Index: i, Time: s.Time, Previous: samples[i-1].Time, Wrapped: ErrOutOfOrder}
		}

		m := calc.Reduce(s)
		for _, metric := range ms {
			metric.Observe(s, m)
		}
		for _, obs := range r.observers {
			obs.OnSample(name, s, m)
		}
		res.Metrics = append(res.Metrics, m)
	}

	res.Summary = metrics.Collect(ms)
	res.Elapsed = time.Since(start)
	for _, obs := range r.observers {
		if ro, ok := obs.(RunObserver); ok {
			ro.OnRunDone(res)
		}
	}

	log.Debug("run reduced", "samples", len(samples), "ascent", res.Ascent(), "elapsed", res.Elapsed)
	return res, nil
}
