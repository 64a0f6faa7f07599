// Package automation runs scripted sequences of runs: scenarios loaded
// from YAML and parameter sweeps over a builtin model.
package automation

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cosimrun/internal/config"
	"github.com/san-kum/cosimrun/internal/runner"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Runs        []ScenarioStep `yaml:"runs"`
}

// ScenarioStep is one run of a scenario. Unset fields take the defaults.
type ScenarioStep struct {
	config.Config `yaml:",inline"`
	SaveAs        string `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Name        string      `yaml:"name"`
		Description string      `yaml:"description"`
		Runs        []yaml.Node `yaml:"runs"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	scenario := &Scenario{Name: raw.Name, Description: raw.Description}
	for i, node := range raw.Runs {
		step := ScenarioStep{Config: *config.DefaultConfig()}
		if err := node.Decode(&step); err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}
		if step.Model == "" {
			return nil, fmt.Errorf("run %d: no model given", i+1)
		}
		scenario.Runs = append(scenario.Runs, step)
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("scenario %s has no runs", path)
	}

	return scenario, nil
}

// Executor performs one configured run.
type Executor func(i int, cfg *config.Config) (*runner.Result, error)

type StepResult struct {
	Index  int
	Config *config.Config
	Result *runner.Result
	Err    error
}

// RunScenario executes all steps in order. Each run writes to its save_as
// path, or to a numbered file next to its configured output. With
// keepGoing a failed run does not stop the remaining ones.
func RunScenario(scenario *Scenario, exec Executor, keepGoing bool) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Runs))

	for i := range scenario.Runs {
		step := scenario.Runs[i]
		cfg := step.Config
		cfg.Output = outputFor(step, i)

		res, err := exec(i, &cfg)
		results = append(results, StepResult{Index: i, Config: &cfg, Result: res, Err: err})
		if err != nil && !keepGoing {
			return results, fmt.Errorf("run %d: %w", i+1, err)
		}
	}

	return results, nil
}

func outputFor(step ScenarioStep, i int) string {
	if step.SaveAs != "" {
		return step.SaveAs
	}
	ext := filepath.Ext(step.Output)
	base := strings.TrimSuffix(step.Output, ext)
	if ext == "" {
		ext = ".csv"
	}
	return fmt.Sprintf("%s-%03d%s", base, i+1, ext)
}

// ParameterSweep varies one settable real variable linearly across runs.
type ParameterSweep struct {
	Base     *config.Config
	Param    string
	Min      float64
	Max      float64
	NumSteps int
}

// Scenario expands the sweep into one run per parameter value.
func (s *ParameterSweep) Scenario() (*Scenario, error) {
	if s.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", s.NumSteps)
	}
	if s.Param == "" {
		return nil, fmt.Errorf("sweep needs a parameter name")
	}

	scenario := &Scenario{
		Name:        fmt.Sprintf("sweep %s", s.Param),
		Description: fmt.Sprintf("%s from %g to %g in %d steps", s.Param, s.Min, s.Max, s.NumSteps),
	}

	paramStep := 0.0
	if s.NumSteps > 1 {
		paramStep = (s.Max - s.Min) / float64(s.NumSteps-1)
	}

	for i := 0; i < s.NumSteps; i++ {
		paramVal := s.Min + float64(i)*paramStep

		cfg := *s.Base
		cfg.InitialValues = make(map[string]string, len(s.Base.InitialValues)+1)
		for k, v := range s.Base.InitialValues {
			cfg.InitialValues[k] = v
		}
		cfg.SetInitialValue(s.Param, strconv.FormatFloat(paramVal, 'g', -1, 64))

		scenario.Runs = append(scenario.Runs, ScenarioStep{Config: cfg})
	}
	return scenario, nil
}

// Counts splits results into completed and failed runs.
func Counts(results []StepResult) (completed int, failed int) {
	for _, r := range results {
		if r.Err == nil {
			completed++
		} else {
			failed++
		}
	}
	return
}
