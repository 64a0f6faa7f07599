// Package pacer throttles a simulation loop to a target ratio of simulated
// time to wall-clock time.
package pacer

import (
	"time"

	"github.com/san-kum/cosimrun/internal/cosim"
)

type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Config is owned by a single Timer. A zero Config runs unpaced.
type Config struct {
	Enabled bool
	Target  float64
}

// Timer is the only component of a run that may block.
type Timer struct {
	cfg   Config
	clock Clock

	started   bool
	wallStart time.Time
	simStart  cosim.TimePoint
	simLast   cosim.TimePoint
	wallLast  time.Time
}

func New(cfg Config, clock Clock) *Timer {
	if clock == nil {
		clock = SystemClock{}
	}
	if cfg.Target <= 0 {
		cfg.Enabled = false
	}
	return &Timer{cfg: cfg, clock: clock}
}

// WithTarget enables real-time pacing at the given ratio.
func WithTarget(target float64, clock Clock) *Timer {
	return New(Config{Enabled: true, Target: target}, clock)
}

func (t *Timer) Config() Config { return t.cfg }

// Start anchors simulated time at to the current wall-clock time.
func (t *Timer) Start(at cosim.TimePoint) {
	t.started = true
	t.wallStart = t.clock.Now()
	t.wallLast = t.wallStart
	t.simStart = at
	t.simLast = at
}

// Sleep blocks until wall-clock time has caught up with current at the
// configured ratio. It returns immediately when pacing is disabled or the
// simulation is already behind.
func (t *Timer) Sleep(current cosim.TimePoint) {
	if !t.started {
		t.Start(current)
		return
	}
	t.simLast = current

	if t.cfg.Enabled {
		expected := time.Duration(float64(current.Sub(t.simStart)) / t.cfg.Target)
		if wait := expected - t.clock.Now().Sub(t.wallStart); wait > 0 {
			t.clock.Sleep(wait)
		}
	}
	t.wallLast = t.clock.Now()
}

// MeasuredRealTimeFactor is the achieved ratio of simulated to wall-clock
// time since Start. It is zero until any wall time has elapsed.
func (t *Timer) MeasuredRealTimeFactor() float64 {
	wall := t.wallLast.Sub(t.wallStart)
	if !t.started || wall <= 0 {
		return 0
	}
	return float64(t.simLast.Sub(t.simStart)) / float64(wall)
}
