package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/cosimrun/internal/cosim"
	"github.com/san-kum/cosimrun/internal/integrators"
)

var (
	ErrInvalidPhase     = errors.New("models: operation not allowed in current simulator phase")
	ErrInvalidReference = errors.New("models: invalid value reference")
	ErrReadOnly         = errors.New("models: variable cannot be set")
)

type phase int

const (
	phaseInstantiated phase = iota
	phaseSetup
	phaseStarted
	phaseEnded
)

type simulator struct {
	name  string
	model *Model
	phase phase

	begin, end cosim.TimePoint

	reals            []float64
	substeps         int32
	failOnDivergence bool
	integratorName   string

	sys      integrators.System
	integ    integrators.Integrator
	state    integrators.State
	steps    int32
	diverged bool
}

func newSimulator(name string, m *Model) *simulator {
	s := &simulator{
		name:             name,
		model:            m,
		reals:            make([]float64, m.layout.realsCount),
		substeps:         1,
		failOnDivergence: true,
		integratorName:   m.def.Integrator,
	}
	if s.integratorName == "" {
		s.integratorName = "rk4"
	}
	for i, v := range m.def.Start {
		s.reals[m.layout.starts+i] = v
	}
	for i, p := range m.def.Params {
		s.reals[m.layout.params+i] = p.Default
	}
	return s
}

func (s *simulator) ModelDescription() *cosim.ModelDescription { return s.model.desc }

func (s *simulator) Setup(begin, end cosim.TimePoint, _ cosim.SetupOptions) error {
	if s.phase != phaseInstantiated {
		return fmt.Errorf("%w: setup called twice", ErrInvalidPhase)
	}
	s.begin, s.end = begin, end
	s.phase = phaseSetup
	return nil
}

func (s *simulator) SetVariables(values *cosim.VariableValues) error {
	if s.phase == phaseEnded {
		return fmt.Errorf("%w: simulation has ended", ErrInvalidPhase)
	}
	l := s.model.layout
	started := s.phase == phaseStarted

	for i, ref := range values.Real.Refs {
		r := int(ref)
		switch {
		case r >= l.starts && r < l.inputs:
			if started {
				return fmt.Errorf("%w: parameter %d is fixed after start", ErrReadOnly, ref)
			}
		case r >= l.inputs && r < l.realsCount:
		case r < l.realsCount:
			return fmt.Errorf("%w: real %d is an output", ErrReadOnly, ref)
		default:
			return fmt.Errorf("%w: real %d", ErrInvalidReference, ref)
		}
		s.reals[r] = values.Real.Values[i]
	}

	for i, ref := range values.Integer.Refs {
		switch {
		case ref == refSubsteps && !started:
			if values.Integer.Values[i] < 1 {
				return fmt.Errorf("substeps must be at least 1, got %d", values.Integer.Values[i])
			}
			s.substeps = values.Integer.Values[i]
		case ref == refSubsteps || ref == refSteps:
			return fmt.Errorf("%w: integer %d", ErrReadOnly, ref)
		default:
			return fmt.Errorf("%w: integer %d", ErrInvalidReference, ref)
		}
	}

	for i, ref := range values.Boolean.Refs {
		switch {
		case ref == refFailOnDivergence && !started:
			s.failOnDivergence = values.Boolean.Values[i]
		case ref == refFailOnDivergence || ref == refDiverged:
			return fmt.Errorf("%w: boolean %d", ErrReadOnly, ref)
		default:
			return fmt.Errorf("%w: boolean %d", ErrInvalidReference, ref)
		}
	}

	for i, ref := range values.String.Refs {
		switch {
		case ref == refIntegrator && !started:
			s.integratorName = values.String.Values[i]
		case ref == refIntegrator:
			return fmt.Errorf("%w: string %d", ErrReadOnly, ref)
		default:
			return fmt.Errorf("%w: string %d", ErrInvalidReference, ref)
		}
	}
	return nil
}

func (s *simulator) params() map[string]float64 {
	p := make(map[string]float64, len(s.model.def.Params))
	for i, param := range s.model.def.Params {
		p[param.Name] = s.reals[s.model.layout.params+i]
	}
	return p
}

func (s *simulator) inputs() integrators.State {
	l := s.model.layout
	return integrators.State(s.reals[l.inputs:l.realsCount])
}

func (s *simulator) startState() integrators.State {
	l := s.model.layout
	return integrators.State(s.reals[l.starts : l.starts+len(s.model.def.States)]).Clone()
}

func (s *simulator) StartSimulation() error {
	if s.phase != phaseSetup {
		return fmt.Errorf("%w: start requires setup", ErrInvalidPhase)
	}
	integ, err := integrators.ByName(s.integratorName)
	if err != nil {
		return err
	}
	s.integ = integ
	s.sys = s.model.def.New(s.params())
	s.state = s.startState()
	s.phase = phaseStarted
	return nil
}

// DoStep integrates over [t, t+dt] in substeps. A state that goes NaN or
// Inf fails the step and is discarded unless fail_on_divergence is false.
func (s *simulator) DoStep(t cosim.TimePoint, dt time.Duration) (cosim.StepResult, error) {
	if s.phase != phaseStarted {
		return cosim.StepFailed, fmt.Errorf("%w: step before start", ErrInvalidPhase)
	}

	x := integrators.Integrate(s.integ, s.sys, s.state, s.inputs(), t.Seconds(), dt.Seconds(), int(s.substeps))

	if !x.IsValid() {
		if s.failOnDivergence {
			return cosim.StepFailed, nil
		}
		s.diverged = true
	}
	s.state = x
	s.steps++
	return cosim.StepComplete, nil
}

func (s *simulator) GetVariables(refs cosim.References) (*cosim.VariableValues, error) {
	l := s.model.layout
	state := s.state
	if state == nil {
		state = s.startState()
	}

	values := &cosim.VariableValues{}
	for _, ref := range refs.Real {
		r := int(ref)
		switch {
		case r < len(s.model.def.States):
			values.Real.Append(ref, state[r])
		case r == l.energy:
			sys := s.sys
			if sys == nil {
				sys = s.model.def.New(s.params())
			}
			values.Real.Append(ref, sys.(Hamiltonian).Energy(state))
		case r < l.realsCount:
			values.Real.Append(ref, s.reals[r])
		default:
			return nil, fmt.Errorf("%w: real %d", ErrInvalidReference, ref)
		}
	}

	for _, ref := range refs.Integer {
		switch ref {
		case refSubsteps:
			values.Integer.Append(ref, s.substeps)
		case refSteps:
			values.Integer.Append(ref, s.steps)
		default:
			return nil, fmt.Errorf("%w: integer %d", ErrInvalidReference, ref)
		}
	}

	for _, ref := range refs.Boolean {
		switch ref {
		case refFailOnDivergence:
			values.Boolean.Append(ref, s.failOnDivergence)
		case refDiverged:
			values.Boolean.Append(ref, s.diverged)
		default:
			return nil, fmt.Errorf("%w: boolean %d", ErrInvalidReference, ref)
		}
	}

	for _, ref := range refs.String {
		if ref != refIntegrator {
			return nil, fmt.Errorf("%w: string %d", ErrInvalidReference, ref)
		}
		values.String.Append(ref, s.integratorName)
	}
	return values, nil
}

func (s *simulator) EndSimulation() error {
	if s.phase != phaseStarted {
		return fmt.Errorf("%w: end without start", ErrInvalidPhase)
	}
	s.phase = phaseEnded
	return nil
}
