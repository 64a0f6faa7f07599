package runner

import (
	"fmt"

	"github.com/san-kum/cosimrun/internal/cosim"
)

const (
	DefaultOutputFile    = "model-output.csv"
	DefaultStepSize      = 0.01
	DefaultBeginTime     = 0.0
	DefaultEndTime       = 1.0
	DefaultProgressCount = 10
)

// Options configure a single run. Times are in seconds.
type Options struct {
	ModelURI           string
	BaseURI            string
	OutputFile         string
	BeginTime          float64
	EndTime            float64
	StepSize           float64
	RealTimeFactor     *float64
	ProgressResolution int
	InitialValues      []string
}

func DefaultOptions() Options {
	return Options{
		OutputFile: DefaultOutputFile,
		BeginTime:  DefaultBeginTime,
		EndTime:    DefaultEndTime,
		StepSize:   DefaultStepSize,
	}
}

func (o Options) Validate() error {
	if o.StepSize <= 0 {
		return fmt.Errorf("%w, got %g", cosim.ErrInvalidStepSize, o.StepSize)
	}
	if cosim.DurationFromSeconds(o.StepSize) <= 0 {
		return fmt.Errorf("%w, %g is below time resolution", cosim.ErrInvalidStepSize, o.StepSize)
	}
	if o.EndTime < o.BeginTime {
		return fmt.Errorf("%w: %g < %g", cosim.ErrInvalidTimeRange, o.EndTime, o.BeginTime)
	}
	if o.RealTimeFactor != nil && *o.RealTimeFactor <= 0 {
		return fmt.Errorf("%w, got %g", cosim.ErrInvalidRealTimeFactor, *o.RealTimeFactor)
	}
	if o.ProgressResolution < 0 || o.ProgressResolution > 100 {
		return fmt.Errorf("%w, got %d", cosim.ErrInvalidProgressResolution, o.ProgressResolution)
	}
	return nil
}
