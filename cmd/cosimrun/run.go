package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/cosimrun/internal/config"
	"github.com/san-kum/cosimrun/internal/cosim"
	"github.com/san-kum/cosimrun/internal/logging"
	"github.com/san-kum/cosimrun/internal/metrics"
	"github.com/san-kum/cosimrun/internal/models"
	"github.com/san-kum/cosimrun/internal/progress"
	"github.com/san-kum/cosimrun/internal/recorder"
	"github.com/san-kum/cosimrun/internal/runner"
	"github.com/san-kum/cosimrun/internal/storage"
	"github.com/san-kum/cosimrun/internal/tui"
)

// stabilityThreshold bounds every real column for the stability metric.
const stabilityThreshold = 1e6

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel, os.Stderr)

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	opts := cfg.ToOptions(models.BaseURI(cwd))
	opts.InitialValues = append(opts.InitialValues, args[1:]...)

	reg := models.NewRegistry()
	options := []runner.Option{
		runner.WithMetrics(runMetrics(reg, opts)...),
	}

	var res *runner.Result
	start := time.Now()
	if useTUI {
		begin := cosim.TimePointFromSeconds(opts.BeginTime)
		end := cosim.TimePointFromSeconds(opts.EndTime)
		res, err = tui.Run(cfg.Model, firstReal(reg, opts), begin, end,
			func(sink progress.Sink, obs recorder.Observer) (*runner.Result, error) {
				return runner.New(reg, opts, append(options,
					runner.WithLogger(logging.Discard()),
					runner.WithProgressSink(sink),
					runner.WithObserver(obs),
				)...).Run()
			})
	} else {
		var sinks progress.Multi
		sinks = append(sinks, progress.LogSink{Logger: logger})
		if opts.ProgressResolution > 0 {
			sinks = append(sinks, progress.MachineSink{W: os.Stdout})
		}
		logger.Info("running simulation", "model", opts.ModelURI, "output", opts.OutputFile)
		res, err = runner.New(reg, opts, append(options,
			runner.WithLogger(logger),
			runner.WithProgressSink(sinks),
		)...).Run()
	}
	elapsed := time.Since(start)

	if !noHistory && res != nil && !cosim.IsConfigurationError(err) {
		if saveErr := saveRun(opts, res, err, logger); saveErr != nil {
			logger.Warn("could not record run history", "error", saveErr)
		}
	}
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("output: %s\n", opts.OutputFile)
	fmt.Printf("rows: %d\n", res.Rows)
	if res.RealTimeFactor > 0 {
		fmt.Printf("real time factor: %.3f\n", res.RealTimeFactor)
	}
	if res.Summary != nil {
		fmt.Println("\nmetrics:")
		for name, val := range res.Summary.Values() {
			fmt.Printf("  %s: %.6f\n", name, val)
		}
	}
	return nil
}

// resolveConfig layers defaults, preset, config file and changed flags, in
// that order.
func resolveConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg.BeginTime = p.BeginTime
		cfg.EndTime = p.EndTime
		cfg.StepSize = p.StepSize
		cfg.RealTimeFactor = p.RealTimeFactor
		for name, value := range p.InitialValues {
			cfg.SetInitialValue(name, value)
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.Model = model

	// CLI flags override config
	flags := cmd.Flags()
	if flags.Changed("output-file") {
		cfg.Output = outputFile
	}
	if flags.Changed("step-size") {
		cfg.StepSize = stepSize
	}
	if flags.Changed("begin-time") {
		cfg.BeginTime = beginTime
	}
	if flags.Changed("end-time") {
		cfg.EndTime = endTime
	}
	if flags.Changed("rtf") {
		cfg.RealTimeFactor = &rtf
	}
	if flags.Changed("mr-progress-resolution") {
		cfg.ProgressResolution = mrResolution
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMetrics(reg *models.Registry, opts runner.Options) []metrics.Metric {
	ms := []metrics.Metric{metrics.NewStability(stabilityThreshold)}

	m, err := reg.LookupModel(opts.BaseURI, opts.ModelURI)
	if err != nil {
		return ms
	}
	col := 0
	for _, v := range m.Description().Variables {
		if v.Type != cosim.Real {
			continue
		}
		if v.Name == "energy" {
			ms = append(ms, metrics.NewEnergyDrift(col))
			break
		}
		col++
	}
	return ms
}

func firstReal(reg *models.Registry, opts runner.Options) string {
	m, err := reg.LookupModel(opts.BaseURI, opts.ModelURI)
	if err != nil {
		return ""
	}
	for _, v := range m.Description().Variables {
		if v.Type == cosim.Real {
			return v.Name
		}
	}
	return ""
}

func saveRun(opts runner.Options, res *runner.Result, runErr error, logger *slog.Logger) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	meta := &storage.RunMetadata{
		Model:         opts.ModelURI,
		BeginTime:     opts.BeginTime,
		EndTime:       opts.EndTime,
		StepSize:      opts.StepSize,
		Output:        opts.OutputFile,
		InitialValues: opts.InitialValues,
		Status:        storage.StatusCompleted,
		Rows:          res.Rows,
		RealTimeRatio: res.RealTimeFactor,
		WallTime:      res.WallTime.Seconds(),
	}
	if runErr != nil {
		meta.Status = storage.StatusFailed
		meta.Error = runErr.Error()
	}
	if res.FailureTime != nil {
		t := res.FailureTime.Seconds()
		meta.FailureTime = &t
	}
	if res.Summary != nil {
		meta.Summary = res.Summary.Columns()
		meta.Metrics = res.Summary.Values()
	}

	runID, err := st.Save(meta)
	if err != nil {
		return err
	}
	logger.Info("run recorded", "id", runID)
	return nil
}
