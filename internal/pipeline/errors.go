package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfOrder indicates a sample earlier than the one before it.
	ErrOutOfOrder = errors.New("pipeline: samples out of time order")

	// ErrNoRuns indicates an ensemble started with nothing to reduce.
	ErrNoRuns = errors.New("pipeline: no runs")
)

// SampleError wraps an error with the position of the offending sample.
type SampleError struct {
	Run      string
	Index    int
	Time     float64
	Previous float64
	Wrapped  error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("run %q sample %d (t=%g after t=%g): %v", e.Run, e.Index, e.Time, e.Previous, e.Wrapped)
}

func (e *SampleError) Unwrap() error {
	return e.Wrapped
}
