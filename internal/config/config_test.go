package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/san-kum/rkode/internal/problems"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Problem != "exponential" {
		t.Errorf("expected problem exponential, got %s", cfg.Problem)
	}
	if cfg.Method != "rk4" {
		t.Errorf("expected method rk4, got %s", cfg.Method)
	}
	if cfg.StepSize <= 0 {
		t.Error("step size should be positive")
	}
	if got := cfg.End(); got != 2 {
		t.Errorf("expected default span to end at 2, got %g", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestEnd(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TInitial = 1
	cfg.StepSize = 0.5
	if got := cfg.End(); got != 11 {
		t.Errorf("expected 11, got %g", got)
	}
	cfg.TFinal = 3
	if got := cfg.End(); got != 3 {
		t.Errorf("expected explicit t_final 3, got %g", got)
	}
}

func TestForProblem(t *testing.T) {
	cfg, err := ForProblem("lorenz")
	if err != nil {
		t.Fatal(err)
	}
	info, _ := problems.Lookup("lorenz")
	if cfg.StepSize != info.StepSize || cfg.TFinal != info.TFinal {
		t.Errorf("window not taken from catalog: %+v", cfg)
	}

	if _, err := ForProblem("pendulum"); !errors.Is(err, problems.ErrUnknownProblem) {
		t.Errorf("expected ErrUnknownProblem, got %v", err)
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Problem = "vanderpol"
	cfg.Method = "dp45"
	cfg.ErrorThreshold = 1e-9
	cfg.InitState = []float64{0.5, 0}
	cfg.Params = map[string]float64{"mu": 2}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Problem != "vanderpol" || got.Method != "dp45" || got.ErrorThreshold != 1e-9 {
		t.Errorf("loaded %+v", got)
	}
	if !slices.Equal(got.InitState, cfg.InitState) || got.Params["mu"] != 2 {
		t.Errorf("loaded state %v params %v", got.InitState, got.Params)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("method: heun\nstep_size: 0.05\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Method != "heun" || cfg.StepSize != 0.05 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Problem != DefaultProblem || cfg.MaxSteps != 500 || !cfg.LocalExtrapolation {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if got := cfg.End(); got < 0.999999 || got > 1.000001 {
		t.Errorf("expected span end 1, got %g", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("step_size: [1, 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(c *Config)
		want string
	}{
		{"unknown problem", func(c *Config) { c.Problem = "pendulum" }, "unknown problem"},
		{"unknown method", func(c *Config) { c.Method = "rk9" }, "unknown method"},
		{"empty method", func(c *Config) { c.Method = "" }, "unknown method"},
		{"zero step", func(c *Config) { c.StepSize = 0 }, "step_size"},
		{"min above max", func(c *Config) { c.StepSizeMin = 1; c.StepSizeMax = 0.1 }, "above step_size_max"},
		{"safety", func(c *Config) { c.SafetyFactor = 2 }, "safety_factor"},
		{"backwards span", func(c *Config) { c.TInitial = 5; c.TFinal = 1 }, "before t_initial"},
		{"negative limit", func(c *Config) { c.Limit = -1 }, "limit"},
		{"state shape", func(c *Config) { c.InitState = []float64{1, 2, 3} }, "init_state has 3 components"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Problem = "pendulum"
	cfg.Method = "rk9"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "problem") || !strings.Contains(err.Error(), "method") {
		t.Errorf("expected both problems reported, got %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("vanderpol", "relaxation")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Params["mu"] != 5 {
		t.Errorf("expected mu 5, got %v", cfg.Params)
	}
	if cfg.SafetyFactor != 0.9 || !cfg.LocalExtrapolation {
		t.Errorf("defaults not layered under preset: %+v", cfg)
	}

	cfg.Params["mu"] = 100
	if again := GetPreset("vanderpol", "relaxation"); again.Params["mu"] != 5 {
		t.Error("preset modified through returned copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("lorenz", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "butterfly"); cfg != nil {
		t.Error("expected nil for nonexistent problem")
	}
}

func TestPresetsValidate(t *testing.T) {
	for problem := range Presets {
		for _, name := range ListPresets(problem) {
			if err := GetPreset(problem, name).Validate(); err != nil {
				t.Errorf("%s/%s: %v", problem, name, err)
			}
		}
	}
}

func TestListPresets(t *testing.T) {
	got := ListPresets("lorenz")
	if !slices.Equal(got, []string{"butterfly", "stable"}) {
		t.Errorf("unexpected presets %v", got)
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent problem")
	}
}

func TestBuild(t *testing.T) {
	cfg := GetPreset("logistic", "fast")
	p, sys, err := cfg.Build()
	if err != nil {
		t.Fatal(err)
	}
	if sys.GetParams()["r"] != 2 {
		t.Errorf("params not applied: %v", sys.GetParams())
	}
	if len(p.YInitial) != 1 || p.YInitial[0] != 0.5 {
		t.Errorf("expected default initial state, got %v", p.YInitial)
	}

	cfg.Params = map[string]float64{"omega": 1}
	if _, _, err := cfg.Build(); !errors.Is(err, problems.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestSessionOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Method = "bs23"
	cfg.LocalExtrapolation = false
	cfg.ErrorThreshold = 1e-5

	opts := cfg.SessionOptions(nil)
	if opts.Method != "bs23" || opts.ErrorThreshold != 1e-5 || !opts.DisableLocalExtrapolation {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.TFinal != cfg.End() || opts.Limit != cfg.Limit || opts.MaxSteps != cfg.MaxSteps {
		t.Errorf("span or bounds not carried: %+v", opts)
	}
}
