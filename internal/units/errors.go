package units

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompatible indicates two unit expressions cannot be converted into each other.
	ErrIncompatible = errors.New("units: incompatible units")

	// ErrUnknownUnit indicates a token matched no registered unit, even after
	// stripping a power suffix and a metric prefix.
	ErrUnknownUnit = errors.New("units: unknown unit")
)

// UnknownUnitError names the token that could not be resolved.
type UnknownUnitError struct {
	Token string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("units: unknown unit %q", e.Token)
}

func (e *UnknownUnitError) Unwrap() error {
	return ErrUnknownUnit
}

// IncompatibleUnitsError is returned by every failed conversion. When the
// failure comes from an unrecognised token, Wrapped holds the
// *UnknownUnitError so both errors.Is(err, ErrIncompatible) and
// errors.Is(err, ErrUnknownUnit) hold.
type IncompatibleUnitsError struct {
	From    string
	To      string
	Reason  string
	Wrapped error
}

func (e *IncompatibleUnitsError) Error() string {
	msg := fmt.Sprintf("units: cannot convert %q to %q", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *IncompatibleUnitsError) Unwrap() []error {
	if e.Wrapped == nil {
		return []error{ErrIncompatible}
	}
	return []error{ErrIncompatible, e.Wrapped}
}
