// Package stepper advances a simulator through bounded time steps.
package stepper

import (
	"time"

	"github.com/san-kum/cosimrun/internal/cosim"
)

type Outcome struct {
	Start     cosim.TimePoint
	Completed cosim.TimePoint
	Status    cosim.StepResult
}

// Executor owns a simulator and the current simulated time of a run.
// It never blocks on wall-clock time.
type Executor struct {
	sim     cosim.Simulator
	current cosim.TimePoint
	end     cosim.TimePoint
	steps   int
}

func New(sim cosim.Simulator, begin, end cosim.TimePoint) *Executor {
	return &Executor{sim: sim, current: begin, end: end}
}

func (e *Executor) Current() cosim.TimePoint { return e.current }
func (e *Executor) Done() bool               { return e.current >= e.end }
func (e *Executor) Steps() int               { return e.steps }

// Advance performs one step of at most step, clamped so the run never
// passes its end time. On failure the current time is left at the start of
// the attempted step.
func (e *Executor) Advance(step time.Duration) (Outcome, error) {
	dt := step
	if remaining := e.end.Sub(e.current); remaining < dt {
		dt = remaining
	}

	out := Outcome{Start: e.current, Completed: e.current, Status: cosim.StepFailed}
	res, err := e.sim.DoStep(e.current, dt)
	if err != nil || res != cosim.StepComplete {
		return out, err
	}

	e.current = e.current.Add(dt)
	e.steps++
	out.Completed = e.current
	out.Status = cosim.StepComplete
	return out, nil
}
