package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/rkode/internal/analysis"
	"github.com/san-kum/rkode/internal/config"
	"github.com/san-kum/rkode/internal/optim"
	"github.com/san-kum/rkode/internal/problems"
	"github.com/san-kum/rkode/internal/storage"
	"github.com/san-kum/rkode/internal/tableau"
)

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if meta.Adaptive {
		return fmt.Errorf("run %s is adaptive; frequency analysis needs a fixed-step run", meta.ID)
	}

	freq, err := analysis.DominantFrequency(samples, component)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("problem: %s\n\n", meta.Problem)

	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = s.Y[component]
	}
	ps := analysis.PowerSpectrum(data)
	plotData := ps[1 : len(ps)/4+2]
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (y%d)", component)),
	)
	fmt.Println(graph)
	fmt.Println()

	fmt.Printf("dominant frequency: %.4f cycles per unit t\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.4f\n", 1.0/freq)
	}
	return nil
}

func lyapunov(cmd *cobra.Command, args []string) error {
	sys, err := problems.New(args[0])
	if err != nil {
		return err
	}
	tab, err := tableau.Lookup(lyapMethod)
	if err != nil {
		return err
	}

	lambda, err := analysis.LyapunovExponent(sys, tab, sys.DefaultState(), analysis.LyapunovOptions{
		StepSize:  lyapStep,
		Duration:  duration,
		Transient: transient,
	})
	if err != nil {
		return err
	}

	fmt.Printf("largest lyapunov exponent of %s: %.4f\n", args[0], lambda)
	switch {
	case lambda > 0.01:
		fmt.Println("nearby trajectories diverge exponentially (chaotic)")
	case lambda < -0.01:
		fmt.Println("nearby trajectories converge")
	default:
		fmt.Println("nearby trajectories neither converge nor diverge exponentially")
	}
	return nil
}

func converge(cmd *cobra.Command, args []string) error {
	cfg, err := config.ForProblem(args[0])
	if err != nil {
		return err
	}
	problem, sys, err := cfg.Build()
	if err != nil {
		return err
	}
	exact, ok := exactSolution(sys, problem)
	if !ok {
		return fmt.Errorf("%s has no closed form solution to compare against", args[0])
	}
	end := cfg.End()
	if convTFinal > 0 {
		end = convTFinal
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tH\tERROR\tORDER")
	for _, name := range args[1:] {
		tab, err := tableau.Lookup(name)
		if err != nil {
			return err
		}
		study, err := analysis.Convergence(cmd.Context(), problem, exact, tab, analysis.ConvergenceOptions{
			StepSize: convStep,
			TFinal:   end,
			Levels:   levels,
			Workers:  workers,
			Logger:   slog.Default(),
		})
		if err != nil {
			return err
		}
		for i, h := range study.StepSizes {
			order := "-"
			if !math.IsNaN(study.Orders[i]) {
				order = fmt.Sprintf("%.2f", study.Orders[i])
			}
			fmt.Fprintf(w, "%s\t%g\t%.3e\t%s\n", name, h, study.Errors[i], order)
		}
		fmt.Fprintf(w, "%s\t\t\tobserved %.2f (nominal %d)\n", name, study.Observed(), tab.Order())
	}
	return w.Flush()
}

func tune(cmd *cobra.Command, args []string) error {
	cfg, err := config.ForProblem(args[0])
	if err != nil {
		return err
	}
	cfg.Method = args[1]
	if tuneStep > 0 {
		cfg.StepSize = tuneStep
	}
	if tuneTFinal > 0 {
		cfg.TFinal = tuneTFinal
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	tab, err := tableau.Lookup(cfg.Method)
	if err != nil {
		return err
	}
	if !tab.IsAdaptive() {
		return fmt.Errorf("%s has no embedded error estimate to tune", cfg.Method)
	}

	problem, sys, err := cfg.Build()
	if err != nil {
		return err
	}
	exact, ok := exactSolution(sys, problem)
	if !ok {
		return fmt.Errorf("%s has no closed form solution to compare against", args[0])
	}

	thresholds := []float64{1e-2, 1e-3, 1e-4, 1e-5, 1e-6, 1e-7, 1e-8, 1e-9, 1e-10}
	safety := []float64{0.7, 0.8, 0.9, 1}
	best, err := optim.TuneAdaptive(cmd.Context(), problem, exact, cfg.SessionOptions(slog.Default()), target, thresholds, safety)
	if err != nil {
		return err
	}

	fmt.Printf("cheapest %s configuration for %s with global error <= %g:\n", cfg.Method, cfg.Problem, target)
	fmt.Printf("  error_threshold: %g\n", best.ErrorThreshold)
	fmt.Printf("  safety_factor:   %g\n", best.SafetyFactor)
	fmt.Printf("  evaluations:     %d\n", best.Evaluations)
	fmt.Printf("  global error:    %.3e\n", best.GlobalError)
	return nil
}
