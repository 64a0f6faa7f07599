// Package models hosts the builtin models that the runner can resolve
// without loading anything from disk.
//
// Every builtin model is an ODE integrated with a fixed-step solver and
// exposes the same catalog layout:
//
//   - one real output per state, plus "energy" for conservative systems
//   - a real "<state>_start" parameter per state
//   - the model's physical parameters (real)
//   - real inputs for controllable systems
//   - integer parameter "substeps" and integer output "steps"
//   - boolean parameter "fail_on_divergence" and boolean output "diverged"
//   - string parameter "integrator"
package models

import (
	"fmt"

	"github.com/san-kum/cosimrun/internal/cosim"
	"github.com/san-kum/cosimrun/internal/integrators"
)

type Param struct {
	Name    string
	Default float64
}

type Definition struct {
	Name        string
	Description string
	States      []string
	Start       []float64
	Params      []Param
	Inputs      []string
	Integrator  string
	New         func(params map[string]float64) integrators.System
}

// Hamiltonian is implemented by systems that conserve energy.
type Hamiltonian interface {
	Energy(x integrators.State) float64
}

const (
	refSubsteps cosim.ValueReference = 0
	refSteps    cosim.ValueReference = 1

	refFailOnDivergence cosim.ValueReference = 0
	refDiverged         cosim.ValueReference = 1

	refIntegrator cosim.ValueReference = 0
)

// layout records where each group of real variables starts.
type layout struct {
	states     int
	energy     int
	starts     int
	params     int
	inputs     int
	realsCount int
}

func (d *Definition) defaults() map[string]float64 {
	p := make(map[string]float64, len(d.Params))
	for _, param := range d.Params {
		p[param.Name] = param.Default
	}
	return p
}

func (d *Definition) layout() layout {
	l := layout{states: 0, energy: -1}
	n := len(d.States)
	if _, ok := d.New(d.defaults()).(Hamiltonian); ok {
		l.energy = n
		n++
	}
	l.starts = n
	n += len(d.States)
	l.params = n
	n += len(d.Params)
	l.inputs = n
	n += len(d.Inputs)
	l.realsCount = n
	return l
}

func (d *Definition) describe(l layout) *cosim.ModelDescription {
	vars := make([]cosim.VariableDescription, 0, l.realsCount+5)
	addReal := func(name string, ref int, c cosim.Causality, v cosim.Variability) {
		vars = append(vars, cosim.VariableDescription{
			Name: name, Reference: cosim.ValueReference(ref), Type: cosim.Real, Causality: c, Variability: v,
		})
	}

	for i, s := range d.States {
		addReal(s, l.states+i, cosim.Output, cosim.Continuous)
	}
	if l.energy >= 0 {
		addReal("energy", l.energy, cosim.Output, cosim.Continuous)
	}
	for i, s := range d.States {
		addReal(s+"_start", l.starts+i, cosim.Parameter, cosim.Fixed)
	}
	for i, p := range d.Params {
		addReal(p.Name, l.params+i, cosim.Parameter, cosim.Fixed)
	}
	for i, in := range d.Inputs {
		addReal(in, l.inputs+i, cosim.Input, cosim.Continuous)
	}

	vars = append(vars,
		cosim.VariableDescription{Name: "substeps", Reference: refSubsteps, Type: cosim.Integer, Causality: cosim.Parameter, Variability: cosim.Fixed},
		cosim.VariableDescription{Name: "steps", Reference: refSteps, Type: cosim.Integer, Causality: cosim.Output, Variability: cosim.Discrete},
		cosim.VariableDescription{Name: "fail_on_divergence", Reference: refFailOnDivergence, Type: cosim.Boolean, Causality: cosim.Parameter, Variability: cosim.Fixed},
		cosim.VariableDescription{Name: "diverged", Reference: refDiverged, Type: cosim.Boolean, Causality: cosim.Output, Variability: cosim.Discrete},
		cosim.VariableDescription{Name: "integrator", Reference: refIntegrator, Type: cosim.String, Causality: cosim.Parameter, Variability: cosim.Fixed},
	)

	return &cosim.ModelDescription{
		Name:        d.Name,
		UUID:        "builtin:" + d.Name,
		Description: d.Description,
		Author:      "cosimrun",
		Version:     "1.0",
		Variables:   vars,
	}
}

// Model is a builtin model ready to be instantiated.
type Model struct {
	def    *Definition
	layout layout
	desc   *cosim.ModelDescription
}

func NewModel(def *Definition) (*Model, error) {
	if len(def.Start) != len(def.States) {
		return nil, fmt.Errorf("model %s: %d start values for %d states", def.Name, len(def.Start), len(def.States))
	}
	if def.New == nil {
		return nil, fmt.Errorf("model %s: no system constructor", def.Name)
	}
	l := def.layout()
	return &Model{def: def, layout: l, desc: def.describe(l)}, nil
}

func (m *Model) Description() *cosim.ModelDescription { return m.desc }

func (m *Model) Instantiate(name string) (cosim.Simulator, error) {
	return newSimulator(name, m), nil
}
