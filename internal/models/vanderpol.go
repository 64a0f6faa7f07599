package models

import "github.com/san-kum/cosimrun/internal/integrators"

// VanDerPol implements the Van der Pol oscillator.
//
//	dx/dt = y
//	dy/dt = mu(1 - x^2)y - x
var VanDerPol = &Definition{
	Name:        "vanderpol",
	Description: "van der pol relaxation oscillator",
	States:      []string{"x", "y"},
	Start:       []float64{2.0, 0.0},
	Params:      []Param{{Name: "mu", Default: 1.0}},
	Integrator:  "rk4",
	New: func(p map[string]float64) integrators.System {
		return &vanDerPol{mu: p["mu"]}
	},
}

type vanDerPol struct {
	mu float64
}

func (v *vanDerPol) Derive(state, _ integrators.State, _ float64) integrators.State {
	x, y := state[0], state[1]
	return integrators.State{y, v.mu*(1-x*x)*y - x}
}
