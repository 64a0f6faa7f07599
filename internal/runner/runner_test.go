package runner_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cosimrun/internal/cosim"
	"github.com/san-kum/cosimrun/internal/logging"
	"github.com/san-kum/cosimrun/internal/metrics"
	"github.com/san-kum/cosimrun/internal/models"
	"github.com/san-kum/cosimrun/internal/runner"
	"github.com/san-kum/cosimrun/internal/storage"
)

var _ = Describe("Runner", func() {
	var (
		model    *stubModel
		resolver *stubResolver
		clock    *fakeClock
		events   *eventLog
		opts     runner.Options
	)

	BeforeEach(func() {
		model = newStubModel()
		resolver = &stubResolver{model: model}
		clock = newFakeClock()
		events = &eventLog{}
		opts = runner.DefaultOptions()
		opts.ModelURI = "stub.fmu"
		opts.OutputFile = filepath.Join(GinkgoT().TempDir(), "out.csv")
	})

	run := func() (*runner.Result, error) {
		r := runner.New(resolver, opts,
			runner.WithClock(clock),
			runner.WithProgressSink(events),
			runner.WithLogger(logging.Discard()),
		)
		return r.Run()
	}

	load := func() *storage.Trajectory {
		traj, err := storage.LoadTrajectory(opts.OutputFile)
		Expect(err).NotTo(HaveOccurred())
		return traj
	}

	Describe("step arithmetic", func() {
		DescribeTable("records ceil((end-begin)/step)+1 rows ending exactly at end",
			func(begin, end, step float64, rows int) {
				opts.BeginTime, opts.EndTime, opts.StepSize = begin, end, step

				res, err := run()
				Expect(err).NotTo(HaveOccurred())
				Expect(res.State).To(Equal(runner.Ended))
				Expect(res.Rows).To(Equal(rows))
				Expect(res.FinalTime).To(Equal(cosim.TimePointFromSeconds(end)))

				traj := load()
				Expect(traj.Times).To(HaveLen(rows))
				Expect(traj.Times[0]).To(Equal(begin))
				Expect(traj.Times[rows-1]).To(Equal(end))
			},
			Entry("uneven step", 0.0, 1.0, 0.3, 5),
			Entry("tenths", 0.0, 1.0, 0.1, 11),
			Entry("halves", 0.0, 1.0, 0.5, 3),
			Entry("offset begin", 0.2, 1.0, 0.25, 5),
			Entry("single step", 0.0, 1.0, 1.0, 2),
			Entry("step beyond range", 0.0, 1.0, 5.0, 2),
			Entry("empty range", 1.0, 1.0, 0.1, 1),
		)

		It("clamps only the last step", func() {
			opts.StepSize = 0.3
			_, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(model.sim.dts).To(Equal([]time.Duration{
				300 * time.Millisecond,
				300 * time.Millisecond,
				300 * time.Millisecond,
				100 * time.Millisecond,
			}))
		})

		It("keeps header and row widths equal", func() {
			_, err := run()
			Expect(err).NotTo(HaveOccurred())

			traj := load()
			Expect(traj.Header).To(Equal([]string{
				"Time",
				"x [0 real parameter]",
				"clock [1 real output]",
				"n [0 integer output]",
				"y [0 boolean parameter]",
				"label [0 string local]",
			}))
			for _, row := range traj.Rows {
				Expect(row).To(HaveLen(len(traj.Header) - 1))
			}
		})
	})

	Describe("initial values", func() {
		It("applies x=2.5 before the first record", func() {
			opts.EndTime, opts.StepSize = 1.0, 0.5
			opts.InitialValues = []string{"x=2.5", "y=true"}

			res, err := run()
			Expect(err).NotTo(HaveOccurred())

			traj := load()
			Expect(traj.Times).To(Equal([]float64{0, 0.5, 1}))
			Expect(traj.Rows[0]).To(Equal([]string{"2.5", "0", "0", "true", "a,b"}))
			Expect(traj.Rows[2]).To(Equal([]string{"2.5", "1", "2", "true", "a,b"}))

			Expect(res.Summary.Columns()).To(ContainElement(metrics.ColumnStats{
				Name: "x", Min: 2.5, Max: 2.5, Mean: 2.5, Final: 2.5, Samples: 3,
			}))
		})

		It("aborts on y=notabool before the output exists", func() {
			opts.InitialValues = []string{"y=notabool"}

			res, err := run()
			Expect(err).To(MatchError(cosim.ErrConversionFailure))
			Expect(cosim.IsInputError(err)).To(BeTrue())
			Expect(res.State).To(Equal(runner.Errored))
			Expect(model.instantiated).To(BeZero())
			Expect(opts.OutputFile).NotTo(BeAnExistingFile())
		})

		It("rejects output variables", func() {
			opts.InitialValues = []string{"clock=1"}

			_, err := run()
			Expect(err).To(MatchError(cosim.ErrNonSettableVariable))
			Expect(opts.OutputFile).NotTo(BeAnExistingFile())
		})
	})

	Describe("step failure", func() {
		BeforeEach(func() {
			failAt := cosim.TimePointFromSeconds(0.7)
			model.sim.failAt = &failAt
			opts.StepSize = 0.1
		})

		It("stops at the failed step and reports its start time", func() {
			res, err := run()
			Expect(err).To(MatchError(cosim.ErrStepFailed))
			Expect(err.Error()).To(ContainSubstring("t=0.7"))

			var sfe *cosim.StepFailureError
			Expect(err).To(BeAssignableToTypeOf(sfe))

			Expect(res.State).To(Equal(runner.Errored))
			Expect(res.Rows).To(Equal(8))
			Expect(*res.FailureTime).To(Equal(cosim.TimePointFromSeconds(0.7)))

			traj := load()
			Expect(traj.Times[len(traj.Times)-1]).To(Equal(0.7))
		})

		It("keeps the transport error", func() {
			model.sim.stepErr = errTransport
			_, err := run()
			Expect(err).To(MatchError(errTransport))
			Expect(err).To(MatchError(cosim.ErrStepFailed))
		})

		It("ends the simulation exactly once", func() {
			_, _ = run()
			Expect(model.sim.started).To(Equal(1))
			Expect(model.sim.ended).To(Equal(1))
		})
	})

	Describe("lifecycle", func() {
		It("ends the simulation exactly once on success", func() {
			_, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(model.sim.ended).To(Equal(1))
		})

		It("does not end a simulation that never started", func() {
			model.sim.startErr = errTransport

			res, err := run()
			Expect(err).To(MatchError(errTransport))
			Expect(res.State).To(Equal(runner.Errored))
			Expect(model.sim.ended).To(BeZero())
		})

		It("wraps lookup failures", func() {
			resolver.err = errTransport

			_, err := run()
			Expect(err).To(MatchError(cosim.ErrModelLookup))
			Expect(err).To(MatchError(errTransport))
		})

		It("reports the state after a run", func() {
			r := runner.New(resolver, opts, runner.WithClock(clock))
			Expect(r.State()).To(Equal(runner.Configured))
			_, err := r.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(r.State()).To(Equal(runner.Ended))
		})

		It("fails with a sink error when the output cannot be created", func() {
			opts.OutputFile = filepath.Join(GinkgoT().TempDir(), "missing", "out.csv")

			_, err := run()
			Expect(err).To(MatchError(cosim.ErrSinkIO))
			Expect(model.sim.started).To(BeZero())
		})
	})

	Describe("terminal state", func() {
		var logs bytes.Buffer

		runLogged := func(extra ...runner.Option) (*runner.Result, error) {
			logs.Reset()
			r := runner.New(resolver, opts, append([]runner.Option{
				runner.WithClock(clock),
				runner.WithProgressSink(events),
				runner.WithLogger(logging.NewLogger("debug", &logs)),
			}, extra...)...)
			return r.Run()
		}

		expectSingleErrored := func() {
			out := logs.String()
			Expect(strings.Count(out, "to=errored")).To(Equal(1))
			Expect(out).NotTo(ContainSubstring("to=ended"))
			Expect(out).NotTo(ContainSubstring("run complete"))
		}

		It("logs exactly one transition to ended on success", func() {
			res, err := runLogged()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.State).To(Equal(runner.Ended))
			Expect(strings.Count(logs.String(), "to=ended")).To(Equal(1))
			Expect(logs.String()).NotTo(ContainSubstring("to=errored"))
		})

		It("errors without passing through ended when EndSimulation fails", func() {
			model.sim.endErr = errTransport

			res, err := runLogged()
			Expect(err).To(MatchError(errTransport))
			Expect(res.State).To(Equal(runner.Errored))
			Expect(res.Rows).To(Equal(101))
			Expect(model.sim.ended).To(Equal(1))
			expectSingleErrored()
		})

		It("errors without passing through ended when the output cannot be closed", func() {
			sink := &stubSink{failAfter: -1, closeErr: errDiskFull}

			res, err := runLogged(runner.WithOpener(sink.open))
			Expect(err).To(MatchError(cosim.ErrSinkIO))
			Expect(err).To(MatchError(errDiskFull))
			Expect(res.State).To(Equal(runner.Errored))
			Expect(sink.closed).To(Equal(1))
			expectSingleErrored()
		})

		It("stops with a sink error when a row cannot be written mid-run", func() {
			// header and the row at begin succeed
			sink := &stubSink{failAfter: 2}

			res, err := runLogged(runner.WithOpener(sink.open))
			Expect(err).To(MatchError(cosim.ErrSinkIO))
			Expect(err).To(MatchError(errDiskFull))
			Expect(res.State).To(Equal(runner.Errored))
			Expect(res.Rows).To(Equal(1))
			Expect(model.sim.started).To(Equal(1))
			Expect(model.sim.ended).To(Equal(1))
			Expect(sink.closed).To(Equal(1))
			expectSingleErrored()

			records := strings.Split(strings.TrimSpace(sink.data.String()), "\n")
			Expect(records).To(HaveLen(2))
		})
	})

	Describe("configuration", func() {
		DescribeTable("rejects invalid options before any model interaction",
			func(mutate func(*runner.Options), want error) {
				mutate(&opts)

				_, err := run()
				Expect(err).To(MatchError(want))
				Expect(cosim.IsConfigurationError(err)).To(BeTrue())
				Expect(resolver.lookups).To(BeZero())
			},
			Entry("zero step", func(o *runner.Options) { o.StepSize = 0 }, cosim.ErrInvalidStepSize),
			Entry("negative step", func(o *runner.Options) { o.StepSize = -0.1 }, cosim.ErrInvalidStepSize),
			Entry("end before begin", func(o *runner.Options) { o.BeginTime = 2 }, cosim.ErrInvalidTimeRange),
			Entry("zero rtf", func(o *runner.Options) { zero := 0.0; o.RealTimeFactor = &zero }, cosim.ErrInvalidRealTimeFactor),
			Entry("resolution above 100", func(o *runner.Options) { o.ProgressResolution = 101 }, cosim.ErrInvalidProgressResolution),
		)
	})

	Describe("pacing", func() {
		It("does not sleep without a real time factor", func() {
			_, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(clock.slept).To(BeZero())
		})

		It("paces simulated time against the wall clock", func() {
			rtf := 2.0
			opts.RealTimeFactor = &rtf
			opts.StepSize = 0.1

			res, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(clock.slept).To(Equal(500 * time.Millisecond))
			Expect(res.WallTime).To(Equal(500 * time.Millisecond))
			Expect(res.RealTimeFactor).To(BeNumerically("~", 2.0, 1e-9))
		})
	})

	Describe("progress", func() {
		It("reports every ten percent by default", func() {
			opts.StepSize = 0.05

			_, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(events.percents()).To(Equal([]int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}))
		})

		It("honours a custom resolution", func() {
			opts.StepSize = 0.1
			opts.ProgressResolution = 25

			_, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(events.percents()).To(Equal([]int{25, 50, 75, 100}))
		})

		It("reports completion for an empty range", func() {
			opts.BeginTime, opts.EndTime = 1, 1

			_, err := run()
			Expect(err).NotTo(HaveOccurred())
			Expect(events.percents()).To(Equal([]int{100}))
		})
	})

	Describe("with a builtin model", func() {
		It("runs the pendulum end to end", func() {
			resolver := models.NewRegistry()
			opts.ModelURI = "builtin:pendulum"
			opts.InitialValues = []string{"theta_start=1.0", "damping=0"}

			res, err := runner.New(resolver, opts,
				runner.WithClock(clock),
				runner.WithMetrics(metrics.NewEnergyDrift(2)),
			).Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Rows).To(Equal(101))
			Expect(res.Summary.Values()["energy_drift"]).To(BeNumerically("<", 1e-6))

			traj := load()
			Expect(traj.Header[1]).To(Equal("theta [0 real output]"))
			theta, err := traj.Column("theta")
			Expect(err).NotTo(HaveOccurred())
			Expect(theta[0]).To(Equal(1.0))
		})

		It("keeps a diverged run storable in the history", func() {
			resolver := models.NewRegistry()
			opts.ModelURI = "builtin:vanderpol"
			opts.StepSize, opts.EndTime = 0.1, 5
			opts.InitialValues = []string{"mu=1000", "integrator=euler", "fail_on_divergence=false"}

			res, err := runner.New(resolver, opts,
				runner.WithClock(clock),
				runner.WithMetrics(metrics.NewStability(1e6)),
			).Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Rows).To(Equal(51))

			cols := res.Summary.Columns()
			Expect(cols).NotTo(BeEmpty())
			Expect(cols[0].Name).To(Equal("x"))
			Expect(cols[0].NonFinite).To(BeNumerically(">", 0))
			Expect(res.Summary.Values()["stability"]).To(BeNumerically("<", 1))

			st := storage.New(GinkgoT().TempDir())
			id, err := st.Save(&storage.RunMetadata{
				Model:   opts.ModelURI,
				Status:  storage.StatusCompleted,
				Rows:    res.Rows,
				Summary: cols,
				Metrics: res.Summary.Values(),
			})
			Expect(err).NotTo(HaveOccurred())

			loaded, err := st.Load(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Summary[0].NonFinite).To(Equal(cols[0].NonFinite))
		})
	})

	It("leaves no partial file when the model cannot be found", func() {
		resolver.err = os.ErrNotExist
		_, err := run()
		Expect(err).To(HaveOccurred())
		Expect(opts.OutputFile).NotTo(BeAnExistingFile())
	})
})
