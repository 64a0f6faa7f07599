package metrics

import (
	"math"

	"github.com/san-kum/cosimrun/internal/cosim"
)

// EnergyDrift is the largest relative deviation of an energy column from
// its first recorded value. Non-finite energies are ignored.
type EnergyDrift struct {
	name          string
	column        int
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(column int) *EnergyDrift {
	return &EnergyDrift{
		name:   "energy_drift",
		column: column,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(_ cosim.TimePoint, reals []float64) {
	if e.column < 0 || e.column >= len(reals) {
		return
	}
	energy := reals[e.column]
	if !finite(energy) {
		return
	}

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
