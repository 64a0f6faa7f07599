package models

import (
	"math"

	"github.com/san-kum/cosimrun/internal/integrators"
)

// DoublePendulum is a chaotic two-link pendulum with torque on the first joint.
var DoublePendulum = &Definition{
	Name:        "double_pendulum",
	Description: "chaotic double pendulum with torque on the upper joint",
	States:      []string{"theta1", "theta2", "omega1", "omega2"},
	Start:       []float64{math.Pi / 2, math.Pi / 2, 0, 0},
	Params: []Param{
		{Name: "mass1", Default: 1.0},
		{Name: "mass2", Default: 1.0},
		{Name: "length1", Default: 1.0},
		{Name: "length2", Default: 1.0},
		{Name: "gravity", Default: 9.81},
	},
	Inputs:     []string{"torque"},
	Integrator: "rk4",
	New: func(p map[string]float64) integrators.System {
		return &doublePendulum{
			m1: p["mass1"], m2: p["mass2"],
			l1: p["length1"], l2: p["length2"],
			gravity: p["gravity"],
		}
	},
}

type doublePendulum struct {
	m1, m2  float64
	l1, l2  float64
	gravity float64
}

func (d *doublePendulum) Derive(x, u integrators.State, t float64) integrators.State {
	theta1, theta2, omega1, omega2 := x[0], x[1], x[2], x[3]
	m1, m2, l1, l2, g := d.m1, d.m2, d.l1, d.l2, d.gravity

	delta := theta2 - theta1
	sinD, cosD := math.Sin(delta), math.Cos(delta)

	tau := 0.0
	if len(u) > 0 {
		tau = u[0]
	}

	den1 := (m1+m2)*l1 - m2*l1*cosD*cosD
	den2 := (l2 / l1) * den1

	alpha1 := (m2*l1*omega1*omega1*sinD*cosD +
		m2*g*math.Sin(theta2)*cosD +
		m2*l2*omega2*omega2*sinD -
		(m1+m2)*g*math.Sin(theta1) + tau) / den1

	alpha2 := (-m2*l2*omega2*omega2*sinD*cosD +
		(m1+m2)*g*math.Sin(theta1)*cosD -
		(m1+m2)*l1*omega1*omega1*sinD -
		(m1+m2)*g*math.Sin(theta2)) / den2

	return integrators.State{omega1, omega2, alpha1, alpha2}
}

// Energy is measured with the pivot as the zero of potential energy.
func (d *doublePendulum) Energy(x integrators.State) float64 {
	theta1, theta2, omega1, omega2 := x[0], x[1], x[2], x[3]
	m1, m2, l1, l2, g := d.m1, d.m2, d.l1, d.l2, d.gravity

	v1sq := l1 * l1 * omega1 * omega1
	v2sq := l1*l1*omega1*omega1 + l2*l2*omega2*omega2 +
		2*l1*l2*omega1*omega2*math.Cos(theta1-theta2)

	ke := 0.5*m1*v1sq + 0.5*m2*v2sq
	y1 := -l1 * math.Cos(theta1)
	y2 := y1 - l2*math.Cos(theta2)
	pe := m1*g*y1 + m2*g*y2

	return ke + pe
}
