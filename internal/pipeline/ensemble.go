package pipeline

import (
	"context"
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/dynstab/internal/logging"
	"github.com/san-kum/dynstab/internal/metrics"
	"github.com/san-kum/dynstab/internal/stability"
)

// Run is one independent reduction: a sample series and the rocket it
// belongs to.
type Run struct {
	Name    string
	Config  stability.Config
	Samples []stability.Sample
}

// Ensemble reduces independent runs concurrently. Each run gets its own
// Runner and Calculator; only observers are shared.
type Ensemble struct {
	limit     int
	observers []Observer
	logger    *slog.Logger
}

// NewEnsemble limits concurrency to limit goroutines, or GOMAXPROCS when
// limit is not positive.
func NewEnsemble(limit int, logger *slog.Logger) *Ensemble {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	return &Ensemble{limit: limit, logger: logging.OrDiscard(logger)}
}

func (e *Ensemble) AddObserver(o Observer) { e.observers = append(e.observers, o) }

// Run reduces every run and returns results in input order. The first
// failure cancels the remaining runs.
func (e *Ensemble) Run(ctx context.Context, runs []Run) ([]*Result, error) {
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.Ensemble", trace.WithAttributes(
		attribute.Int("runs", len(runs)),
		attribute.Int("limit", e.limit),
	))
	defer span.End()

	results := make([]*Result, len(runs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)

	for i, run := range runs {
		i, run := i, run
		g.Go(func() error {
			r := New(run.Config, e.logger)
			for _, o := range e.observers {
				r.AddObserver(o)
			}
			res, err := r.Run(ctx, run.Name, run.Samples)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	e.logger.Info("ensemble reduced", "runs", len(runs))
	return results, nil
}

// Stats combines the per-run summaries of results.
func Stats(results []*Result) []metrics.Stat {
	summaries := make([]map[string]float64, 0, len(results))
	for _, r := range results {
		if r != nil {
			summaries = append(summaries, r.Summary)
		}
	}
	return metrics.AcrossRuns(summaries)
}
