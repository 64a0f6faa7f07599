// Package runner drives one model instance from begin to end time,
// recording every variable at every completed step.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/cosimrun/internal/cosim"
	"github.com/san-kum/cosimrun/internal/initval"
	"github.com/san-kum/cosimrun/internal/logging"
	"github.com/san-kum/cosimrun/internal/metrics"
	"github.com/san-kum/cosimrun/internal/pacer"
	"github.com/san-kum/cosimrun/internal/progress"
	"github.com/san-kum/cosimrun/internal/recorder"
	"github.com/san-kum/cosimrun/internal/stepper"
)

type State int

const (
	Configured State = iota
	Initialized
	Running
	Ended
	Errored
)

func (s State) String() string {
	switch s {
	case Configured:
		return "configured"
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Ended:
		return "ended"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result describes how far a run got. It is returned even when Run fails.
type Result struct {
	State          State
	Rows           int
	Steps          int
	FinalTime      cosim.TimePoint
	FailureTime    *cosim.TimePoint
	WallTime       time.Duration
	RealTimeFactor float64
	Summary        *metrics.Summary
}

type Runner struct {
	resolver cosim.Resolver
	opts     Options

	logger        *slog.Logger
	sink          progress.Sink
	clock         pacer.Clock
	progressCount int
	observers     []recorder.Observer
	extraMetrics  []metrics.Metric
	open          recorder.Opener

	state State
}

type Option func(*Runner)

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func WithProgressSink(s progress.Sink) Option {
	return func(r *Runner) { r.sink = s }
}

func WithClock(c pacer.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

func WithProgressCount(n int) Option {
	return func(r *Runner) { r.progressCount = n }
}

func WithObserver(o recorder.Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// WithOpener replaces the function that creates the output file.
func WithOpener(open recorder.Opener) Option {
	return func(r *Runner) { r.open = open }
}

// WithMetrics adds metrics to the run summary alongside the per-column
// statistics.
func WithMetrics(ms ...metrics.Metric) Option {
	return func(r *Runner) { r.extraMetrics = append(r.extraMetrics, ms...) }
}

func New(resolver cosim.Resolver, opts Options, options ...Option) *Runner {
	r := &Runner{
		resolver:      resolver,
		opts:          opts,
		logger:        logging.Discard(),
		clock:         pacer.SystemClock{},
		progressCount: DefaultProgressCount,
		open:          recorder.CreateFile,
		state:         Configured,
	}
	for _, o := range options {
		o(r)
	}
	if r.sink == nil {
		r.sink = progress.LogSink{Logger: r.logger}
	}
	return r
}

func (r *Runner) State() State { return r.state }

func (r *Runner) transition(s State) {
	r.logger.Debug("run state changed", "from", r.state.String(), "to", s.String())
	r.state = s
}

// Run executes the configured run to completion or to the first failure.
// Once the simulation has started, EndSimulation is called exactly once.
// The terminal state is entered once, after the simulation has ended and
// the output is closed.
func (r *Runner) Run() (res *Result, err error) {
	res = &Result{State: r.state}
	wallStart := r.clock.Now()
	defer func() {
		res.WallTime = r.clock.Now().Sub(wallStart)
		if err != nil {
			r.transition(Errored)
			r.logger.Error("run failed", "error", err)
		} else {
			r.transition(Ended)
			r.logger.Info("run complete",
				"rows", res.Rows,
				"t", res.FinalTime.String(),
				"rtf", res.RealTimeFactor,
			)
		}
		res.State = r.state
	}()

	if err := r.opts.Validate(); err != nil {
		return res, err
	}
	begin := cosim.TimePointFromSeconds(r.opts.BeginTime)
	end := cosim.TimePointFromSeconds(r.opts.EndTime)
	step := cosim.DurationFromSeconds(r.opts.StepSize)

	model, err := r.resolver.LookupModel(r.opts.BaseURI, r.opts.ModelURI)
	if err != nil {
		return res, fmt.Errorf("%w: %s: %w", cosim.ErrModelLookup, r.opts.ModelURI, err)
	}
	desc := model.Description()
	r.logger.Debug("model resolved", "name", desc.Name, "variables", len(desc.Variables))

	var values *cosim.VariableValues
	if len(r.opts.InitialValues) > 0 {
		if values, err = initval.Parse(r.opts.InitialValues, desc); err != nil {
			return res, err
		}
	}

	sim, err := model.Instantiate("simulator")
	if err != nil {
		return res, fmt.Errorf("instantiating %s: %w", desc.Name, err)
	}
	if err := sim.Setup(begin, end, cosim.SetupOptions{}); err != nil {
		return res, fmt.Errorf("setting up simulation: %w", err)
	}
	r.transition(Initialized)

	if values != nil && values.Len() > 0 {
		if err := sim.SetVariables(values); err != nil {
			return res, fmt.Errorf("setting initial values: %w", err)
		}
	}

	rec, err := recorder.CreateWith(sim, r.opts.OutputFile, r.open)
	if err != nil {
		return res, err
	}
	defer func() {
		if cerr := rec.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	res.Summary = metrics.NewSummary(realColumns(rec.Columns()), r.extraMetrics...)
	rec.AddObserver(res.Summary)
	for _, o := range r.observers {
		rec.AddObserver(o)
	}

	if err := sim.StartSimulation(); err != nil {
		return res, fmt.Errorf("starting simulation: %w", err)
	}
	defer func() {
		if eerr := sim.EndSimulation(); eerr != nil && err == nil {
			err = fmt.Errorf("ending simulation: %w", eerr)
		}
	}()

	return res, r.loop(sim, rec, begin, end, step, res)
}

func (r *Runner) loop(sim cosim.Simulator, rec *recorder.Recorder, begin, end cosim.TimePoint, step time.Duration, res *Result) error {
	exec := stepper.New(sim, begin, end)
	timer := pacer.New(r.pacerConfig(), r.clock)
	reporter := progress.New(begin, end.Sub(begin), r.progressCount, r.opts.ProgressResolution, r.sink)
	defer func() {
		res.Rows = rec.Rows()
		res.Steps = exec.Steps()
		res.FinalTime = exec.Current()
		res.RealTimeFactor = timer.MeasuredRealTimeFactor()
	}()

	timer.Start(begin)
	if err := rec.Record(begin); err != nil {
		return err
	}
	r.transition(Running)

	ctx := context.Background()
	for !exec.Done() {
		out, err := exec.Advance(step)
		if out.Status != cosim.StepComplete {
			failed := out.Start
			res.FailureTime = &failed
			return &cosim.StepFailureError{Time: out.Start, Wrapped: err}
		}
		r.logger.Log(ctx, logging.LevelTrace, "step complete", "t", out.Completed.String())

		if err := rec.Record(out.Completed); err != nil {
			return err
		}
		timer.Sleep(out.Completed)
		reporter.Update(out.Completed)
	}
	reporter.Update(exec.Current())
	return nil
}

func (r *Runner) pacerConfig() pacer.Config {
	if r.opts.RealTimeFactor == nil {
		return pacer.Config{}
	}
	return pacer.Config{Enabled: true, Target: *r.opts.RealTimeFactor}
}

func realColumns(cols []recorder.Column) []string {
	var names []string
	for _, c := range cols {
		if c.Variable.Type == cosim.Real {
			names = append(names, c.Variable.Name)
		}
	}
	return names
}
