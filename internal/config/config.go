package config

import (
	"fmt"
	"maps"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cosimrun/internal/runner"
)

type Config struct {
	Model              string            `yaml:"model"`
	Output             string            `yaml:"output"`
	BeginTime          float64           `yaml:"begin_time"`
	EndTime            float64           `yaml:"end_time"`
	StepSize           float64           `yaml:"step_size"`
	RealTimeFactor     *float64          `yaml:"rtf,omitempty"`
	ProgressResolution int               `yaml:"mr_progress_resolution,omitempty"`
	LogLevel           string            `yaml:"log_level,omitempty"`
	InitialValues      map[string]string `yaml:"initial_values,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:     "builtin:pendulum",
		Output:    runner.DefaultOutputFile,
		BeginTime: runner.DefaultBeginTime,
		EndTime:   runner.DefaultEndTime,
		StepSize:  runner.DefaultStepSize,
		LogLevel:  "info",
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of a copy of base. Values the file omits keep
// their base value; initial values are merged by name.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	cfg.InitialValues = maps.Clone(base.InitialValues)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// InitialValueArgs renders InitialValues as name=value arguments sorted by
// name.
func (c *Config) InitialValueArgs() []string {
	names := make([]string, 0, len(c.InitialValues))
	for name := range c.InitialValues {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]string, 0, len(names))
	for _, name := range names {
		args = append(args, name+"="+c.InitialValues[name])
	}
	return args
}

// SetInitialValue records a name=value override.
func (c *Config) SetInitialValue(name, value string) {
	if c.InitialValues == nil {
		c.InitialValues = make(map[string]string)
	}
	c.InitialValues[name] = value
}

func (c *Config) ToOptions(baseURI string) runner.Options {
	return runner.Options{
		ModelURI:           c.Model,
		BaseURI:            baseURI,
		OutputFile:         c.Output,
		BeginTime:          c.BeginTime,
		EndTime:            c.EndTime,
		StepSize:           c.StepSize,
		RealTimeFactor:     c.RealTimeFactor,
		ProgressResolution: c.ProgressResolution,
		InitialValues:      c.InitialValueArgs(),
	}
}

// Validate reports the same configuration errors a run would.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("no model given")
	}
	return c.ToOptions("").Validate()
}
