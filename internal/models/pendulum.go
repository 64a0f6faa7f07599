package models

import (
	"math"

	"github.com/san-kum/cosimrun/internal/integrators"
)

// Pendulum is a damped pendulum driven by an external torque.
var Pendulum = &Definition{
	Name:        "pendulum",
	Description: "damped pendulum with torque input",
	States:      []string{"theta", "omega"},
	Start:       []float64{0.5, 0.0},
	Params: []Param{
		{Name: "mass", Default: 1.0},
		{Name: "length", Default: 1.0},
		{Name: "damping", Default: 0.1},
		{Name: "gravity", Default: 9.81},
	},
	Inputs:     []string{"torque"},
	Integrator: "rk4",
	New: func(p map[string]float64) integrators.System {
		return &pendulum{mass: p["mass"], length: p["length"], damping: p["damping"], gravity: p["gravity"]}
	},
}

type pendulum struct {
	mass, length, damping, gravity float64
}

func (p *pendulum) Derive(x, u integrators.State, t float64) integrators.State {
	theta, omega := x[0], x[1]

	torque := 0.0
	if len(u) > 0 {
		torque = u[0]
	}
	alpha := (-p.damping*omega - p.mass*p.gravity*p.length*math.Sin(theta) + torque) / (p.mass * p.length * p.length)

	return integrators.State{omega, alpha}
}

func (p *pendulum) Energy(x integrators.State) float64 {
	// KE = 0.5 * m * (L*omega)^2
	// PE = m * g * L * (1 - cos(theta))
	v := p.length * x[1]
	ke := 0.5 * p.mass * v * v
	pe := p.mass * p.gravity * p.length * (1.0 - math.Cos(x[0]))
	return ke + pe
}
