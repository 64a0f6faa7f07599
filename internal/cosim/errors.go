package cosim

import (
	"errors"
	"fmt"
)

// Configuration errors, detected before any model interaction.
var (
	ErrInvalidStepSize           = errors.New("cosim: invalid step size (must be >0)")
	ErrInvalidTimeRange          = errors.New("cosim: end time precedes begin time")
	ErrInvalidRealTimeFactor     = errors.New("cosim: real time factor target must be >0")
	ErrInvalidProgressResolution = errors.New("cosim: progress resolution must be within 0-100 percent")
)

// Initial value errors, detected before the simulation starts.
var (
	ErrMalformedSpecification = errors.New("cosim: invalid initial value specification (correct syntax: name=value)")
	ErrUnknownVariable        = errors.New("cosim: no such variable")
	ErrNonSettableVariable    = errors.New("cosim: only parameter and input variables can be set")
	ErrConversionFailure      = errors.New("cosim: invalid value for variable")
)

// Runtime errors.
var (
	ErrModelLookup    = errors.New("cosim: model lookup failed")
	ErrStepFailed     = errors.New("cosim: simulator was unable to complete time step")
	ErrSinkIO         = errors.New("cosim: could not write results")
	ErrColumnMismatch = errors.New("cosim: recorded values do not match output columns")
)

// InitialValueError carries the offending name=value argument.
type InitialValueError struct {
	Arg     string
	Name    string
	Value   string
	Wrapped error
}

func (e *InitialValueError) Error() string {
	switch {
	case errors.Is(e.Wrapped, ErrMalformedSpecification):
		return fmt.Sprintf("%v: '%s'", e.Wrapped, e.Arg)
	case errors.Is(e.Wrapped, ErrConversionFailure):
		return fmt.Sprintf("%v '%s': %s", e.Wrapped, e.Name, e.Value)
	default:
		return fmt.Sprintf("%v: %s", e.Wrapped, e.Name)
	}
}

func (e *InitialValueError) Unwrap() error {
	return e.Wrapped
}

// StepFailureError reports the simulated time at which a step was attempted
// and did not complete.
type StepFailureError struct {
	Time    TimePoint
	Wrapped error
}

func (e *StepFailureError) Error() string {
	msg := fmt.Sprintf("%v at t=%s", ErrStepFailed, e.Time)
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *StepFailureError) Unwrap() []error {
	if e.Wrapped == nil {
		return []error{ErrStepFailed}
	}
	return []error{ErrStepFailed, e.Wrapped}
}

// SinkError wraps a failure to write the output artifact.
type SinkError struct {
	Path    string
	Wrapped error
}

func (e *SinkError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", ErrSinkIO, e.Wrapped)
	}
	return fmt.Sprintf("%v to %s: %v", ErrSinkIO, e.Path, e.Wrapped)
}

func (e *SinkError) Unwrap() []error {
	return []error{ErrSinkIO, e.Wrapped}
}

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidStepSize) ||
		errors.Is(err, ErrInvalidTimeRange) ||
		errors.Is(err, ErrInvalidRealTimeFactor) ||
		errors.Is(err, ErrInvalidProgressResolution) ||
		errors.Is(err, ErrMalformedSpecification)
}

// IsInputError reports whether err was caused by user-supplied initial
// values that do not fit the model.
func IsInputError(err error) bool {
	return errors.Is(err, ErrUnknownVariable) ||
		errors.Is(err, ErrNonSettableVariable) ||
		errors.Is(err, ErrConversionFailure)
}
