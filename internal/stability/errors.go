package stability

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFinSetFound indicates the rocket geometry has no fin set exposing
	// root chord, tip chord, thickness and span.
	ErrNoFinSetFound = errors.New("stability: no fin set with complete geometry")

	// ErrConvention indicates an unrecognised convention name.
	ErrConvention = errors.New("stability: unknown convention")
)

// NoFinSetFoundError reports how many fin sets were inspected before the
// flutter coefficient gave up.
type NoFinSetFoundError struct {
	Inspected int
}

func (e *NoFinSetFoundError) Error() string {
	return fmt.Sprintf("%v (inspected %d fin sets)", ErrNoFinSetFound, e.Inspected)
}

func (e *NoFinSetFoundError) Unwrap() error {
	return ErrNoFinSetFound
}
