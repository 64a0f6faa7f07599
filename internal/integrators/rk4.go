package integrators

// rk4Nodes are the offsets, as fractions of h, of stages two to four.
var rk4Nodes = [3]float64{0.5, 0.5, 1}

// RK4 is the classic four-stage Runge-Kutta method.
type RK4 struct {
	k     [4]State
	stage State
}

func (r *RK4) resize(n int) {
	if len(r.stage) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(State, n)
	}
	r.stage = make(State, n)
}

func (r *RK4) Step(sys System, dst, x, u State, t, h float64) {
	r.resize(len(x))

	copy(r.k[0], sys.Derive(x, u, t))
	for s, c := range rk4Nodes {
		axpy(r.stage, x, c*h, r.k[s])
		copy(r.k[s+1], sys.Derive(r.stage, u, t+c*h))
	}

	h6 := h / 6
	for i := range dst {
		dst[i] = x[i] + h6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
}
