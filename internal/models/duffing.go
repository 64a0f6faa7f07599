package models

import (
	"math"

	"github.com/san-kum/cosimrun/internal/integrators"
)

// Duffing is a nonlinear oscillator forced by gamma*cos(omega*t).
var Duffing = &Definition{
	Name:        "duffing",
	Description: "periodically forced duffing oscillator",
	States:      []string{"x", "v"},
	Start:       []float64{1.0, 0.0},
	Params: []Param{
		{Name: "alpha", Default: -1.0},
		{Name: "beta", Default: 1.0},
		{Name: "delta", Default: 0.3},
		{Name: "gamma", Default: 0.5},
		{Name: "omega", Default: 1.2},
	},
	Integrator: "rk4",
	New: func(p map[string]float64) integrators.System {
		return &duffing{alpha: p["alpha"], beta: p["beta"], delta: p["delta"], gamma: p["gamma"], omega: p["omega"]}
	},
}

type duffing struct {
	alpha, beta, delta, gamma, omega float64
}

func (d *duffing) Derive(s, _ integrators.State, t float64) integrators.State {
	x, v := s[0], s[1]
	return integrators.State{v, -d.delta*v - d.alpha*x - d.beta*x*x*x + d.gamma*math.Cos(d.omega*t)}
}
