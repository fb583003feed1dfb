package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/san-kum/rkode/internal/config"
	"github.com/san-kum/rkode/internal/metrics"
	"github.com/san-kum/rkode/internal/ode"
	"github.com/san-kum/rkode/internal/problems"
	"github.com/san-kum/rkode/internal/session"
)

// Samples with a component beyond this magnitude count as blown up.
const stabilityBound = 1e6

// resolveConfig layers, in increasing precedence: the problem's suggested
// window, a preset, a config file and explicitly set flags.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	name := config.DefaultProblem
	if len(args) > 0 {
		name = args[0]
	}

	cfg, err := config.ForProblem(name)
	if err != nil {
		return nil, err
	}

	if preset != "" {
		p := config.GetPreset(name, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(name))
		}
		cfg = p
		cfg.Problem = name
	}

	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 && fileCfg.Problem != "" && fileCfg.Problem != name {
			return nil, fmt.Errorf("config file is for problem %q, not %q", fileCfg.Problem, name)
		}
		cfg = fileCfg
		if cfg.Problem == "" {
			cfg.Problem = name
		}
	}

	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("h") {
		cfg.StepSize = stepSize
	}
	if flags.Changed("h-min") {
		cfg.StepSizeMin = stepSizeMin
	}
	if flags.Changed("h-max") {
		cfg.StepSizeMax = stepSizeMax
	}
	if flags.Changed("tol") {
		cfg.ErrorThreshold = errorThreshold
	}
	if flags.Changed("safety") {
		cfg.SafetyFactor = safetyFactor
	}
	if flags.Changed("no-extrapolation") {
		cfg.LocalExtrapolation = !noExtrapolation
	}
	if flags.Changed("t0") {
		cfg.TInitial = tInitial
	}
	if flags.Changed("t-final") {
		cfg.TFinal = tFinal
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("limit") {
		cfg.Limit = limit
	}
	if flags.Changed("init") {
		cfg.InitState = initState
	}
	if flags.Changed("param") {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, len(params))
		}
		for k, v := range params {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", k, err)
			}
			cfg.Params[k] = f
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// trajectoryMetrics returns the metrics that apply to sys: global error
// when it has a closed form, energy drift when it conserves energy.
func trajectoryMetrics(sys problems.System, problem ode.Problem[[]float64]) func() []metrics.Metric {
	return func() []metrics.Metric {
		ms := []metrics.Metric{metrics.NewMeanStepSize(), metrics.NewStability(stabilityBound)}
		if exact, ok := exactSolution(sys, problem); ok {
			ms = append(ms, metrics.NewGlobalError(exact))
		}
		if h, ok := sys.(metrics.Hamiltonian); ok {
			ms = append(ms, metrics.NewEnergyDrift(h))
		}
		return ms
	}
}

func exactSolution(sys problems.System, problem ode.Problem[[]float64]) (metrics.Solution, bool) {
	ex, ok := sys.(problems.Exact)
	if !ok {
		return nil, false
	}
	y0, t0 := problem.YInitial, problem.TInitial
	return func(t float64) []float64 { return ex.Solution(y0, t0, t) }, true
}

func buildSession(cfg *config.Config) (*session.Session[[]float64], problems.System, error) {
	problem, sys, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	s, err := session.New[[]float64](ode.Vector{}, problem, cfg.SessionOptions(slog.Default()))
	if err != nil {
		return nil, nil, err
	}
	return s, sys, nil
}
