package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rkode/internal/ode"
	"github.com/san-kum/rkode/internal/problems"
	"github.com/san-kum/rkode/internal/session"
	"github.com/san-kum/rkode/internal/tableau"
)

const (
	DefaultProblem  = "exponential"
	DefaultMethod   = "rk4"
	DefaultStepSize = 0.1

	// DefaultSpanSteps sets an unset t_final to t_initial + DefaultSpanSteps*step_size.
	DefaultSpanSteps = 20
)

var ErrInvalidConfig = errors.New("rkode: invalid config")

type Config struct {
	Problem            string             `yaml:"problem"`
	Method             string             `yaml:"method"`
	StepSize           float64            `yaml:"step_size"`
	StepSizeMin        float64            `yaml:"step_size_min,omitempty"`
	StepSizeMax        float64            `yaml:"step_size_max,omitempty"`
	ErrorThreshold     float64            `yaml:"error_threshold,omitempty"`
	SafetyFactor       float64            `yaml:"safety_factor"`
	LocalExtrapolation bool               `yaml:"local_extrapolation"`
	TInitial           float64            `yaml:"t_initial"`
	TFinal             float64            `yaml:"t_final,omitempty"`
	MaxSteps           int                `yaml:"max_steps"`
	Limit              int                `yaml:"limit"`
	InitState          []float64          `yaml:"init_state,omitempty"`
	Params             map[string]float64 `yaml:"params,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem:            DefaultProblem,
		Method:             DefaultMethod,
		StepSize:           DefaultStepSize,
		SafetyFactor:       session.DefaultSafetyFactor,
		LocalExtrapolation: true,
		MaxSteps:           session.DefaultMaxSteps,
		Limit:              session.DefaultLimit,
	}
}

// ForProblem is DefaultConfig with the problem's suggested window.
func ForProblem(name string) (*Config, error) {
	info, ok := problems.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", problems.ErrUnknownProblem, name)
	}
	cfg := DefaultConfig()
	cfg.Problem = name
	cfg.StepSize = info.StepSize
	cfg.TFinal = info.TFinal
	return cfg, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// End is the final time, with a zero TFinal meaning the default span.
func (c *Config) End() float64 {
	if c.TFinal == 0 {
		return c.TInitial + DefaultSpanSteps*c.StepSize
	}
	return c.TFinal
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	info, known := problems.Lookup(c.Problem)
	if !known {
		add("unknown problem %q", c.Problem)
	}
	if !tableau.IsPreset(c.Method) {
		add("unknown method %q", c.Method)
	}
	if !(c.StepSize > 0) || math.IsInf(c.StepSize, 0) {
		add("step_size must be positive, got %g", c.StepSize)
	}
	if c.StepSizeMin < 0 || c.StepSizeMax < 0 || c.ErrorThreshold < 0 {
		add("step_size_min, step_size_max and error_threshold must not be negative")
	}
	if c.StepSizeMin > 0 && c.StepSizeMax > 0 && c.StepSizeMin > c.StepSizeMax {
		add("step_size_min %g above step_size_max %g", c.StepSizeMin, c.StepSizeMax)
	}
	if c.SafetyFactor < 0 || c.SafetyFactor > 1 {
		add("safety_factor must be in (0,1], got %g", c.SafetyFactor)
	}
	if c.End() < c.TInitial {
		add("t_final %g before t_initial %g", c.End(), c.TInitial)
	}
	if c.MaxSteps < 0 {
		add("max_steps must not be negative, got %d", c.MaxSteps)
	}
	if c.Limit < 0 {
		add("limit must not be negative, got %d", c.Limit)
	}
	if known && c.InitState != nil {
		sys, _ := problems.New(info.Name)
		if len(c.InitState) != sys.Dim() {
			add("init_state has %d components, %s needs %d", len(c.InitState), c.Problem, sys.Dim())
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// Build instantiates the configured system, applies Params and pairs it
// with the initial condition.
func (c *Config) Build() (ode.Problem[[]float64], problems.System, error) {
	sys, err := problems.New(c.Problem)
	if err != nil {
		return ode.Problem[[]float64]{}, nil, err
	}
	for name, v := range c.Params {
		if err := sys.SetParam(name, v); err != nil {
			return ode.Problem[[]float64]{}, nil, err
		}
	}
	return problems.Problem(sys, slices.Clone(c.InitState), c.TInitial), sys, nil
}

// SessionOptions converts the configuration for a vector session. Zero
// adaptive fields fall through to the session defaults.
func (c *Config) SessionOptions(logger *slog.Logger) session.Options[[]float64] {
	return session.Options[[]float64]{
		Method:                    c.Method,
		StepSize:                  c.StepSize,
		StepSizeMin:               c.StepSizeMin,
		StepSizeMax:               c.StepSizeMax,
		ErrorThreshold:            c.ErrorThreshold,
		SafetyFactor:              c.SafetyFactor,
		DisableLocalExtrapolation: !c.LocalExtrapolation,
		TFinal:                    c.End(),
		MaxSteps:                  c.MaxSteps,
		Limit:                     c.Limit,
		Logger:                    logger,
	}
}
