package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/cosimrun/internal/analysis"
	"github.com/san-kum/cosimrun/internal/export"
	"github.com/san-kum/cosimrun/internal/storage"
)

var (
	analyzeColumn string
	phaseX        string
	phaseY        string
	svgFile       string
)

func loadRun(id string) (*storage.RunMetadata, *storage.Trajectory, error) {
	meta, err := storage.New(dataDir).Load(id)
	if err != nil {
		return nil, nil, err
	}
	traj, err := storage.LoadTrajectory(meta.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("loading trajectory: %w", err)
	}
	return meta, traj, nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	column := analyzeColumn
	if column == "" {
		if len(meta.Summary) == 0 {
			return fmt.Errorf("no real columns recorded; pick one with --column")
		}
		column = meta.Summary[0].Name
	}
	data, err := traj.Column(column)
	if err != nil {
		return err
	}

	peak, err := analysis.DominantFrequency(data, meta.StepSize)
	if err != nil {
		return fmt.Errorf("%s: %w", column, err)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("column: %s\n", column)
	fmt.Printf("samples: %d\n", len(data))
	fmt.Printf("dominant frequency: %.4f Hz (+/- %.4f)\n", peak.Frequency, peak.BinWidth/2)
	fmt.Printf("period: %.4f s\n", peak.Period)
	fmt.Printf("magnitude: %.4g\n", peak.Magnitude)
	return nil
}

func phaseRun(cmd *cobra.Command, args []string) error {
	_, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	x, y := phaseX, phaseY
	if x == "" || y == "" {
		names := traj.Names()
		if len(names) < 2 {
			return fmt.Errorf("need two columns for a phase portrait; pick them with --x and --y")
		}
		if x == "" {
			x = names[0]
		}
		if y == "" {
			y = names[1]
		}
	}

	xs, err := traj.Column(x)
	if err != nil {
		return err
	}
	ys, err := traj.Column(y)
	if err != nil {
		return err
	}

	portrait, err := analysis.NewPhasePortrait(x, y, xs, ys)
	if err != nil {
		return err
	}

	if svgFile != "" {
		svg := export.PortraitToSVG(portrait, 600, 600)
		if svg == "" {
			return fmt.Errorf("not enough finite samples to draw")
		}
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
		return nil
	}

	fmt.Println(analysis.PhasePortraitToASCII(portrait, 60, 20))
	return nil
}
