package integrators

import (
	"math"
	"testing"
)

type oscillator struct{}

func (oscillator) Derive(x, u State, t float64) State {
	return State{x[1], -x[0]}
}

func integrate(integ Integrator, steps int, dt float64) State {
	return Integrate(integ, oscillator{}, State{1.0, 0.0}, nil, 0, float64(steps)*dt, steps)
}

// blowup doubles the state every unit of time and turns NaN once |x| > 1e3.
type blowup struct{ calls int }

func (b *blowup) Derive(x, u State, t float64) State {
	b.calls++
	if x[0] > 1e3 {
		return State{math.NaN()}
	}
	return State{x[0] * 1e3}
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name string
		tol  float64
	}{
		{"rk4", 1e-4},
		{"verlet", 1e-3},
		{"euler", 2e-2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integ, err := ByName(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			x := integrate(integ, 100, 0.01)

			if math.Abs(x[0]-math.Cos(1)) > tt.tol {
				t.Errorf("position error too large: got %.6f, expected %.6f", x[0], math.Cos(1))
			}
			if math.Abs(x[1]+math.Sin(1)) > tt.tol {
				t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], -math.Sin(1))
			}
		})
	}
}

func TestIntegrate_SubstepsMatchSingleSteps(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			a, _ := ByName(name)
			b, _ := ByName(name)

			// one call with 10 substeps against 10 calls with one substep each
			got := Integrate(a, oscillator{}, State{1, 0}, nil, 0, 0.1, 10)
			want := State{1, 0}
			for i := 0; i < 10; i++ {
				want = Integrate(b, oscillator{}, want, nil, float64(i)*0.01, 0.01, 1)
			}
			for i := range want {
				if math.Abs(got[i]-want[i]) > 1e-15 {
					t.Errorf("state[%d] = %v, want %v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestIntegrate_LeavesInputUntouched(t *testing.T) {
	x := State{1, 0}
	Integrate(&RK4{}, oscillator{}, x, nil, 0, 1, 4)
	if x[0] != 1 || x[1] != 0 {
		t.Errorf("input modified: %v", x)
	}
}

func TestIntegrate_StopsAtDivergence(t *testing.T) {
	sys := &blowup{}
	x := Integrate(Euler{}, sys, State{1}, nil, 0, 10, 100)

	if x.IsValid() {
		t.Fatalf("expected a non-finite state, got %v", x)
	}
	if sys.calls >= 100 {
		t.Errorf("expected early stop, derived %d times", sys.calls)
	}
}

func TestIntegrate_ZeroSubsteps(t *testing.T) {
	x := Integrate(Euler{}, oscillator{}, State{1, 0}, nil, 0, 0.5, 0)
	if x[0] != 1 || x[1] != -0.5 {
		t.Errorf("expected a single Euler step, got %v", x)
	}
}

func TestByName_Unknown(t *testing.T) {
	if _, err := ByName("rk45"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 3 || names[0] != "euler" || names[1] != "rk4" || names[2] != "verlet" {
		t.Errorf("Names() = %v", names)
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Clone(t *testing.T) {
	src := State{1, 2, 3}
	c := src.Clone()
	c[0] = 99
	if src[0] == 99 {
		t.Error("Clone did not create independent copy")
	}
}
