package integrators

// Euler is the explicit first-order method.
type Euler struct{}

func (Euler) Step(sys System, dst, x, u State, t, h float64) {
	axpy(dst, x, h, sys.Derive(x, u, t))
}
