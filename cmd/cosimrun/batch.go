package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/cosimrun/internal/automation"
	"github.com/san-kum/cosimrun/internal/config"
	"github.com/san-kum/cosimrun/internal/cosim"
	"github.com/san-kum/cosimrun/internal/logging"
	"github.com/san-kum/cosimrun/internal/models"
	"github.com/san-kum/cosimrun/internal/runner"
)

var (
	keepGoing bool

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
)

func batchRun(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	logger := logging.NewLogger(logLevel, os.Stderr)
	logger.Info("running scenario", "name", scenario.Name, "runs", len(scenario.Runs))

	return execute(scenario, logger, "")
}

func sweepRun(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		Base:     base,
		Param:    sweepParam,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
	}
	scenario, err := sweep.Scenario()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(base.LogLevel, os.Stderr)
	logger.Info("running sweep", "model", base.Model, "param", sweepParam, "runs", sweepSteps)

	return execute(scenario, logger, sweepParam)
}

// execute runs every step of scenario and prints one line per run. When
// param is set the swept value gets its own column.
func execute(scenario *automation.Scenario, logger *slog.Logger, param string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	baseURI := models.BaseURI(cwd)
	reg := models.NewRegistry()

	exec := func(i int, cfg *config.Config) (*runner.Result, error) {
		opts := cfg.ToOptions(baseURI)
		runLogger := logger.With("run", i+1)
		runLogger.Info("starting run", "model", opts.ModelURI, "output", opts.OutputFile)

		res, err := runner.New(reg, opts,
			runner.WithLogger(runLogger),
			runner.WithMetrics(runMetrics(reg, opts)...),
		).Run()
		if !noHistory && res != nil && !cosim.IsConfigurationError(err) {
			if saveErr := saveRun(opts, res, err, runLogger); saveErr != nil {
				runLogger.Warn("could not record run history", "error", saveErr)
			}
		}
		return res, err
	}

	results, err := automation.RunScenario(scenario, exec, keepGoing)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if param != "" {
		fmt.Fprintf(w, "RUN\t%s\tOUTPUT\tROWS\tSTATUS\n", param)
	} else {
		fmt.Fprintln(w, "RUN\tMODEL\tOUTPUT\tROWS\tSTATUS")
	}
	for _, r := range results {
		rows, status := 0, "completed"
		if r.Result != nil {
			rows = r.Result.Rows
		}
		if r.Err != nil {
			status = "failed: " + r.Err.Error()
		}
		col := r.Config.Model
		if param != "" {
			col = r.Config.InitialValues[param]
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", r.Index+1, col, r.Config.Output, rows, status)
	}
	if flushErr := w.Flush(); flushErr != nil {
		return flushErr
	}

	completed, failed := automation.Counts(results)
	fmt.Printf("\n%d completed, %d failed\n", completed, failed)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}
	return nil
}
