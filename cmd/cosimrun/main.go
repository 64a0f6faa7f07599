package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/cosimrun/internal/config"
	"github.com/san-kum/cosimrun/internal/cosim"
	"github.com/san-kum/cosimrun/internal/export"
	"github.com/san-kum/cosimrun/internal/models"
	"github.com/san-kum/cosimrun/internal/storage"
	"github.com/san-kum/cosimrun/internal/tui"
)

var (
	dataDir  string
	logLevel string

	outputFile   string
	stepSize     float64
	beginTime    float64
	endTime      float64
	rtf          float64
	mrResolution int
	configFile   string
	preset       string
	useTUI       bool
	noHistory    bool

	plotColumns []string
	withData    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "cosimrun",
		Short:        "run a single model from begin to end time and record its trajectory",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cosimrun", "run history directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run <uri_or_path> [name=value...]",
		Short: "run a model and write every variable to a CSV file",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&outputFile, "output-file", config.DefaultConfig().Output, "output CSV path")
	runCmd.Flags().Float64VarP(&stepSize, "step-size", "s", config.DefaultConfig().StepSize, "step size in seconds")
	runCmd.Flags().Float64Var(&beginTime, "begin-time", config.DefaultConfig().BeginTime, "begin time in seconds")
	runCmd.Flags().Float64Var(&endTime, "end-time", config.DefaultConfig().EndTime, "end time in seconds")
	runCmd.Flags().Float64Var(&rtf, "rtf", 0, "pace the run at this ratio of simulated to wall time")
	runCmd.Flags().IntVar(&mrResolution, "mr-progress-resolution", 0, "print machine readable progress every N percent")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "show a live progress view")
	runCmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record the run in the history")

	inspectCmd := &cobra.Command{
		Use:   "inspect <uri_or_path>",
		Short: "print the variable catalog of a model",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectModel,
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list builtin models",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := models.NewRegistry()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tURI\tDESCRIPTION")
			for _, name := range reg.Names() {
				def, _ := reg.Definition(name)
				fmt.Fprintf(w, "%s\t%s:%s\t%s\n", name, models.BuiltinScheme, name, def.Description)
			}
			return w.Flush()
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets <model>",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show <run_id>",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&withData, "with-data", false, "include the recorded trajectory")

	plotCmd := &cobra.Command{
		Use:   "plot <run_id>",
		Short: "plot recorded columns",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotColumns, "column", nil, "columns to plot (default: every real column)")
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "write the plot to an SVG file instead of the terminal")

	batchCmd := &cobra.Command{
		Use:   "batch <scenario.yaml>",
		Short: "run every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  batchRun,
	}
	batchCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue after a failed run")
	batchCmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record the runs in the history")

	sweepCmd := &cobra.Command{
		Use:   "sweep <uri_or_path>",
		Short: "run a model once per value of a swept variable",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepRun,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "variable to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of runs")
	sweepCmd.Flags().StringVar(&outputFile, "output-file", config.DefaultConfig().Output, "output CSV path, numbered per run")
	sweepCmd.Flags().Float64VarP(&stepSize, "step-size", "s", config.DefaultConfig().StepSize, "step size in seconds")
	sweepCmd.Flags().Float64Var(&beginTime, "begin-time", config.DefaultConfig().BeginTime, "begin time in seconds")
	sweepCmd.Flags().Float64Var(&endTime, "end-time", config.DefaultConfig().EndTime, "end time in seconds")
	sweepCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	sweepCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	sweepCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue after a failed run")
	sweepCmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record the runs in the history")
	_ = sweepCmd.MarkFlagRequired("param")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <run_id>",
		Short: "find the dominant frequency of a recorded column",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeColumn, "column", "", "column to analyze (default: first real column)")

	phaseCmd := &cobra.Command{
		Use:   "phase <run_id>",
		Short: "draw one recorded column against another",
		Args:  cobra.ExactArgs(1),
		RunE:  phaseRun,
	}
	phaseCmd.Flags().StringVar(&phaseX, "x", "", "horizontal column (default: first column)")
	phaseCmd.Flags().StringVar(&phaseY, "y", "", "vertical column (default: second column)")
	phaseCmd.Flags().StringVar(&svgFile, "svg", "", "write the portrait to an SVG file")

	rootCmd.AddCommand(runCmd, inspectCmd, modelsCmd, presetsCmd, listCmd, showCmd, plotCmd,
		batchCmd, sweepCmd, analyzeCmd, phaseCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func inspectModel(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	m, err := models.NewRegistry().LookupModel(models.BaseURI(cwd), args[0])
	if err != nil {
		return fmt.Errorf("%w: %s: %w", cosim.ErrModelLookup, args[0], err)
	}
	desc := m.Description()

	fmt.Println(tui.Header(desc.Name))
	if desc.Description != "" {
		fmt.Println(desc.Description)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREF\tTYPE\tCAUSALITY\tVARIABILITY")
	for _, v := range desc.Variables {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", v.Name, v.Reference, v.Type, v.Causality, v.Variability)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tRANGE\tSTEP\tROWS\tSTATUS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g-%gs\t%gs\t%d\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.BeginTime,
			run.EndTime,
			run.StepSize,
			run.Rows,
			run.Status,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	if !withData {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	traj, err := storage.LoadTrajectory(meta.Output)
	if err != nil {
		return fmt.Errorf("loading trajectory: %w", err)
	}
	return storage.ExportJSON(os.Stdout, meta, traj)
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	traj, err := storage.LoadTrajectory(meta.Output)
	if err != nil {
		return fmt.Errorf("loading trajectory: %w", err)
	}
	if len(traj.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	columns := plotColumns
	if len(columns) == 0 {
		for _, s := range meta.Summary {
			columns = append(columns, s.Name)
		}
	}
	if len(columns) == 0 {
		return fmt.Errorf("no real columns recorded; pick one with --column")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(traj.Rows))

	if svgFile != "" {
		series := make([]export.Series, 0, len(columns))
		for _, name := range columns {
			data, err := traj.Column(name)
			if err != nil {
				return err
			}
			series = append(series, export.Series{Name: name, Values: data})
		}
		svg := export.TrajectoryToSVG(traj.Times, series, 800, 400)
		if svg == "" {
			return fmt.Errorf("not enough finite samples to draw")
		}
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
		return nil
	}

	maxPlots := 6
	if len(columns) > maxPlots {
		columns = columns[:maxPlots]
	}

	for _, name := range columns {
		data, err := traj.Column(name)
		if err != nil {
			return err
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs time (%g-%gs)", name, traj.Times[0], traj.Times[len(traj.Times)-1])),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}
