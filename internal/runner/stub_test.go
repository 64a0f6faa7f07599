package runner_test

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/san-kum/cosimrun/internal/cosim"
	"github.com/san-kum/cosimrun/internal/progress"
)

var (
	errTransport = errors.New("connection reset")
	errDiskFull  = errors.New("no space left on device")
)

// catalog: x real parameter, clock real output, n integer output,
// y boolean parameter, label string local.
func stubDescription() *cosim.ModelDescription {
	return &cosim.ModelDescription{
		Name: "stub",
		Variables: []cosim.VariableDescription{
			{Name: "x", Reference: 0, Type: cosim.Real, Causality: cosim.Parameter},
			{Name: "clock", Reference: 1, Type: cosim.Real, Causality: cosim.Output},
			{Name: "n", Reference: 0, Type: cosim.Integer, Causality: cosim.Output},
			{Name: "y", Reference: 0, Type: cosim.Boolean, Causality: cosim.Parameter},
			{Name: "label", Reference: 0, Type: cosim.String, Causality: cosim.Local},
		},
	}
}

type stubSimulator struct {
	desc *cosim.ModelDescription

	x     float64
	y     bool
	now   cosim.TimePoint
	steps int32

	failAt   *cosim.TimePoint
	stepErr  error
	startErr error
	endErr   error

	dts     []time.Duration
	started int
	ended   int
}

func (s *stubSimulator) ModelDescription() *cosim.ModelDescription { return s.desc }

func (s *stubSimulator) Setup(begin, _ cosim.TimePoint, _ cosim.SetupOptions) error {
	s.now = begin
	return nil
}

func (s *stubSimulator) SetVariables(v *cosim.VariableValues) error {
	for i := range v.Real.Refs {
		s.x = v.Real.Values[i]
	}
	for i := range v.Boolean.Refs {
		s.y = v.Boolean.Values[i]
	}
	return nil
}

func (s *stubSimulator) StartSimulation() error {
	s.started++
	return s.startErr
}

func (s *stubSimulator) DoStep(t cosim.TimePoint, dt time.Duration) (cosim.StepResult, error) {
	if s.failAt != nil && t >= *s.failAt {
		return cosim.StepFailed, s.stepErr
	}
	s.dts = append(s.dts, dt)
	s.now = t.Add(dt)
	s.steps++
	return cosim.StepComplete, nil
}

func (s *stubSimulator) GetVariables(refs cosim.References) (*cosim.VariableValues, error) {
	v := &cosim.VariableValues{}
	for _, ref := range refs.Real {
		if ref == 0 {
			v.Real.Append(ref, s.x)
		} else {
			v.Real.Append(ref, s.now.Seconds())
		}
	}
	for _, ref := range refs.Integer {
		v.Integer.Append(ref, s.steps)
	}
	for _, ref := range refs.Boolean {
		v.Boolean.Append(ref, s.y)
	}
	for _, ref := range refs.String {
		v.String.Append(ref, "a,b")
	}
	return v, nil
}

func (s *stubSimulator) EndSimulation() error {
	s.ended++
	return s.endErr
}

type stubModel struct {
	sim          *stubSimulator
	instantiated int
}

func newStubModel() *stubModel {
	return &stubModel{sim: &stubSimulator{desc: stubDescription()}}
}

func (m *stubModel) Description() *cosim.ModelDescription { return m.sim.desc }

func (m *stubModel) Instantiate(string) (cosim.Simulator, error) {
	m.instantiated++
	return m.sim, nil
}

type stubResolver struct {
	model   cosim.Model
	err     error
	lookups int
}

func (r *stubResolver) LookupModel(_, _ string) (cosim.Model, error) {
	r.lookups++
	if r.err != nil {
		return nil, r.err
	}
	return r.model, nil
}

type fakeClock struct {
	now   time.Time
	slept time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept += d
	c.now = c.now.Add(d)
}

type eventLog struct {
	events []progress.Event
}

func (l *eventLog) Progress(ev progress.Event) { l.events = append(l.events, ev) }

func (l *eventLog) percents() []int {
	out := make([]int, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Percent
	}
	return out
}

// stubSink accepts failAfter writes, then fails every further write.
// A negative failAfter never fails.
type stubSink struct {
	data      bytes.Buffer
	writes    int
	failAfter int
	closeErr  error
	closed    int
}

func (s *stubSink) Write(p []byte) (int, error) {
	if s.failAfter >= 0 && s.writes >= s.failAfter {
		return 0, errDiskFull
	}
	s.writes++
	return s.data.Write(p)
}

func (s *stubSink) Close() error {
	s.closed++
	return s.closeErr
}

func (s *stubSink) open(string) (io.WriteCloser, error) { return s, nil }
