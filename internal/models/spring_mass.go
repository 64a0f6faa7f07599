package models

import "github.com/san-kum/cosimrun/internal/integrators"

var SpringMass = &Definition{
	Name:        "spring_mass",
	Description: "mass on a damped spring with force input",
	States:      []string{"pos", "vel"},
	Start:       []float64{1.0, 0.0},
	Params: []Param{
		{Name: "mass", Default: 1.0},
		{Name: "stiffness", Default: 10.0},
		{Name: "damping", Default: 0.5},
	},
	Inputs:     []string{"force"},
	Integrator: "rk4",
	New: func(p map[string]float64) integrators.System {
		return &springMass{mass: p["mass"], stiffness: p["stiffness"], damping: p["damping"]}
	},
}

type springMass struct {
	mass, stiffness, damping float64
}

func (s *springMass) Derive(x, u integrators.State, t float64) integrators.State {
	pos, vel := x[0], x[1]

	force := -s.stiffness*pos - s.damping*vel
	if len(u) > 0 {
		force += u[0]
	}
	return integrators.State{vel, force / s.mass}
}

func (s *springMass) Energy(x integrators.State) float64 {
	return 0.5*s.mass*x[1]*x[1] + 0.5*s.stiffness*x[0]*x[0]
}
