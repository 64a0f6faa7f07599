// Package integrators provides fixed-step ODE solvers for the builtin models.
package integrators

import (
	"fmt"
	"math"
	"sort"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is an ODE dx/dt = f(x, u, t).
type System interface {
	Derive(x, u State, t float64) State
}

// Integrator advances a state by one step of size h.
type Integrator interface {
	// Step writes the state at t+h into dst. dst has the length of x and
	// does not alias it.
	Step(sys System, dst, x, u State, t, h float64)
}

// Integrate advances x over [t, t+dt] in n equal substeps with inputs u held
// constant. x is left untouched. Substepping stops at the first state that
// is not finite, and that state is returned.
func Integrate(integ Integrator, sys System, x, u State, t, dt float64, n int) State {
	if n < 1 {
		n = 1
	}
	h := dt / float64(n)
	cur := x.Clone()
	next := make(State, len(x))
	for i := 0; i < n; i++ {
		integ.Step(sys, next, cur, u, t+float64(i)*h, h)
		cur, next = next, cur
		if !cur.IsValid() {
			break
		}
	}
	return cur
}

// axpy sets dst = x + a*k.
func axpy(dst, x State, a float64, k State) {
	for i := range dst {
		dst[i] = x[i] + a*k[i]
	}
}

var registry = map[string]func() Integrator{
	"euler":  func() Integrator { return Euler{} },
	"rk4":    func() Integrator { return &RK4{} },
	"verlet": func() Integrator { return &Verlet{} },
}

// ByName returns a fresh integrator. Integrators keep scratch buffers, so
// one instance must not be shared between simulators.
func ByName(name string) (Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
