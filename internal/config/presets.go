package config

import (
	"sort"
	"strings"
)

func rtf(v float64) *float64 { return &v }

var Presets = map[string]map[string]*Config{
	"pendulum": {
		"small": {
			Model: "builtin:pendulum", StepSize: 0.01, EndTime: 20.0,
			InitialValues: map[string]string{"theta_start": "0.2"},
		},
		"large": {
			Model: "builtin:pendulum", StepSize: 0.01, EndTime: 20.0,
			InitialValues: map[string]string{"theta_start": "2.5"},
		},
		"spinning": {
			Model: "builtin:pendulum", StepSize: 0.01, EndTime: 30.0,
			InitialValues: map[string]string{"theta_start": "0.1", "omega_start": "8.0"},
		},
		"realtime": {
			Model: "builtin:pendulum", StepSize: 0.02, EndTime: 10.0, RealTimeFactor: rtf(1.0),
			InitialValues: map[string]string{"theta_start": "1.0"},
		},
	},
	"spring_mass": {
		"bounce": {
			Model: "builtin:spring_mass", StepSize: 0.01, EndTime: 20.0,
			InitialValues: map[string]string{"pos_start": "2.0"},
		},
		"fast": {
			Model: "builtin:spring_mass", StepSize: 0.01, EndTime: 10.0,
			InitialValues: map[string]string{"pos_start": "1.0", "vel_start": "5.0"},
		},
		"undamped": {
			Model: "builtin:spring_mass", StepSize: 0.005, EndTime: 10.0,
			InitialValues: map[string]string{"damping": "0", "integrator": "verlet"},
		},
	},
	"vanderpol": {
		"harmonic": {
			Model: "builtin:vanderpol", StepSize: 0.01, EndTime: 20.0,
			InitialValues: map[string]string{"mu": "0.1"},
		},
		"relaxation": {
			Model: "builtin:vanderpol", StepSize: 0.001, EndTime: 30.0,
			InitialValues: map[string]string{"mu": "5.0", "substeps": "4"},
		},
	},
	"double_pendulum": {
		"chaotic": {
			Model: "builtin:double_pendulum", StepSize: 0.005, EndTime: 30.0,
			InitialValues: map[string]string{"theta1_start": "2.0", "theta2_start": "2.5", "substeps": "4"},
		},
		"gentle": {
			Model: "builtin:double_pendulum", StepSize: 0.01, EndTime: 20.0,
			InitialValues: map[string]string{"theta1_start": "0.1", "theta2_start": "0.1"},
		},
	},
	"duffing": {
		"chaos": {
			Model: "builtin:duffing", StepSize: 0.01, EndTime: 100.0,
			InitialValues: map[string]string{"gamma": "0.5"},
		},
		"periodic": {
			Model: "builtin:duffing", StepSize: 0.01, EndTime: 50.0,
			InitialValues: map[string]string{"gamma": "0.2"},
		},
	},
}

// modelName maps "builtin:pendulum", "builtin:///pendulum" or
// "models/pendulum.fmu" to "pendulum".
func modelName(model string) string {
	name := strings.TrimPrefix(model, "builtin:")
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[modelName(model)]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[modelName(model)]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
