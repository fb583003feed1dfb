package config

import (
	"maps"
	"slices"
)

// Presets holds named run configurations per problem.
var Presets = map[string]map[string]*Config{
	"exponential": {
		"euler": {
			Problem: "exponential", Method: "euler", StepSize: 0.1, TFinal: 2,
		},
		"adaptive": {
			Problem: "exponential", Method: "rkf45", StepSize: 0.1, TFinal: 5, ErrorThreshold: 1e-8,
		},
	},
	"harmonic": {
		"coarse": {
			Problem: "harmonic", Method: "euler", StepSize: 0.2, TFinal: 20,
			InitState: []float64{1, 0},
		},
		"precise": {
			Problem: "harmonic", Method: "dp45", StepSize: 0.1, TFinal: 20, ErrorThreshold: 1e-10,
			InitState: []float64{1, 0},
		},
	},
	"logistic": {
		"fast": {
			Problem: "logistic", Method: "rk4", StepSize: 0.1, TFinal: 10,
			Params: map[string]float64{"r": 2},
		},
	},
	"vanderpol": {
		"limit-cycle": {
			Problem: "vanderpol", Method: "rk4", StepSize: 0.05, TFinal: 20,
			InitState: []float64{0.5, 0},
		},
		"relaxation": {
			Problem: "vanderpol", Method: "bs23", StepSize: 0.01, TFinal: 30, ErrorThreshold: 1e-6,
			MaxSteps: 5000, Limit: 5001,
			Params: map[string]float64{"mu": 5},
		},
	},
	"lotka-volterra": {
		"cycle": {
			Problem: "lotka-volterra", Method: "ralston4", StepSize: 0.02, TFinal: 15, MaxSteps: 1000,
			InitState: []float64{10, 5},
		},
	},
	"lorenz": {
		"butterfly": {
			Problem: "lorenz", Method: "dp45", StepSize: 0.01, TFinal: 40, ErrorThreshold: 1e-8,
			MaxSteps: 20000, Limit: 20001,
		},
		"stable": {
			Problem: "lorenz", Method: "rk4", StepSize: 0.01, TFinal: 20, MaxSteps: 2000,
			Params: map[string]float64{"rho": 10},
		},
	},
}

// GetPreset returns a copy of the named preset layered over DefaultConfig,
// or nil.
func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	cfg, ok := problemPresets[preset]
	if !ok {
		return nil
	}
	out := *DefaultConfig()
	out.Problem = cfg.Problem
	out.Method = cfg.Method
	out.StepSize = cfg.StepSize
	out.StepSizeMin = cfg.StepSizeMin
	out.StepSizeMax = cfg.StepSizeMax
	out.ErrorThreshold = cfg.ErrorThreshold
	if cfg.SafetyFactor != 0 {
		out.SafetyFactor = cfg.SafetyFactor
	}
	out.TInitial = cfg.TInitial
	out.TFinal = cfg.TFinal
	if cfg.MaxSteps != 0 {
		out.MaxSteps = cfg.MaxSteps
	}
	if cfg.Limit != 0 {
		out.Limit = cfg.Limit
	}
	out.InitState = slices.Clone(cfg.InitState)
	out.Params = maps.Clone(cfg.Params)
	return &out
}

// ListPresets returns the preset names for problem in sorted order.
func ListPresets(problem string) []string {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	return slices.Sorted(maps.Keys(problemPresets))
}
