package integrators

// Verlet is velocity Verlet for second-order systems whose state is laid
// out as [positions..., velocities...]. The derivative of a position must
// be its velocity; only the velocity half of Derive is used.
type Verlet struct {
	accel State
	moved State
}

func (v *Verlet) Step(sys System, dst, x, u State, t, h float64) {
	n := len(x)
	half := n / 2
	if len(v.moved) != n {
		v.accel = make(State, n)
		v.moved = make(State, n)
	}
	pos, vel := x[:half], x[half:]

	copy(v.accel, sys.Derive(x, u, t))
	for i := range pos {
		dst[i] = pos[i] + h*vel[i] + 0.5*h*h*v.accel[half+i]
	}

	copy(v.moved[:half], dst[:half])
	copy(v.moved[half:], vel)
	next := sys.Derive(v.moved, u, t+h)
	for i := range vel {
		dst[half+i] = vel[i] + 0.5*h*(v.accel[half+i]+next[half+i])
	}
}
