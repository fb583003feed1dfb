package main

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/rkode/internal/config"
	"github.com/san-kum/rkode/internal/metrics"
	"github.com/san-kum/rkode/internal/session"
	"github.com/san-kum/rkode/internal/sim"
	"github.com/san-kum/rkode/internal/storage"
	"github.com/san-kum/rkode/internal/tui"
	"github.com/san-kum/rkode/internal/viz"
)

func runProblem(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	problem, sys, err := cfg.Build()
	if err != nil {
		return err
	}
	opts := cfg.SessionOptions(slog.Default())

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}
	opts.Observer = collector.For(cfg.Method)

	fmt.Printf("solving %s with %s...\n", cfg.Problem, cfg.Method)
	res, err := sim.Run(cmd.Context(), sim.Job{
		Name:    cfg.Problem,
		Problem: problem,
		Options: opts,
		Metrics: trajectoryMetrics(sys, problem),
	})
	if err != nil {
		return err
	}

	fmt.Println(viz.Summary(cfg.Problem+" · "+res.Method, resultFields(res)))

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(runMetadata(cfg, sys.GetParams(), res), res.Samples)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if showPlot {
		states := make([][]float64, len(res.Samples))
		for i, s := range res.Samples {
			states[i] = s.Y
		}
		graph, err := viz.PlotComponents(states, nil, viz.PlotOptions{Width: 80, Height: 12, Caption: cfg.Problem})
		if err != nil {
			return err
		}
		fmt.Println(graph)
	}

	if showMetrics {
		fmt.Println()
		return metrics.WriteText(os.Stdout, reg)
	}
	return nil
}

func resultFields(res *sim.Result) []viz.Field {
	final := res.Final()
	fields := []viz.Field{
		{Label: "final t", Value: fmt.Sprintf("%.6g", final.T)},
		{Label: "final y", Value: formatState(final.Y)},
		{Label: "samples", Value: fmt.Sprint(len(res.Samples))},
		{Label: "steps", Value: fmt.Sprint(res.Stats.Steps)},
		{Label: "evaluations", Value: fmt.Sprint(res.Stats.Evaluations)},
	}
	if final.Adaptive != nil {
		fields = append(fields,
			viz.Field{Label: "rejected", Value: fmt.Sprint(res.Stats.AccumulatedAttempts)},
			viz.Field{Label: "sum step error", Value: fmt.Sprintf("%.3g", res.Stats.AccumulatedError)},
			viz.Field{Label: "warnings", Value: fmt.Sprint(res.Stats.AccuracyWarnings)},
		)
	}
	if res.Truncated {
		fields = append(fields, viz.Field{Label: "truncated", Value: viz.StatusWarning.Render("limit reached")})
	}
	for _, name := range slices.Sorted(maps.Keys(res.Metrics)) {
		fields = append(fields, viz.Field{Label: name, Value: fmt.Sprintf("%.6g", res.Metrics[name])})
	}
	return append(fields, viz.Field{Label: "elapsed", Value: res.Elapsed.String()})
}

func runMetadata(cfg *config.Config, params map[string]float64, res *sim.Result) storage.RunMetadata {
	meta := storage.RunMetadata{
		Problem:     cfg.Problem,
		Method:      res.Method,
		StepSize:    cfg.StepSize,
		TInitial:    cfg.TInitial,
		TFinal:      cfg.End(),
		Adaptive:    res.Samples[0].Adaptive != nil,
		Steps:       res.Stats.Steps,
		Evaluations: res.Stats.Evaluations,
		Truncated:   res.Truncated,
		Params:      params,
		Metrics:     res.Metrics,
	}
	if meta.Adaptive {
		meta.ErrorThreshold = cfg.ErrorThreshold
		if meta.ErrorThreshold == 0 {
			meta.ErrorThreshold = session.DefaultErrorThreshold
		}
	}
	return meta
}

func formatState(y []float64) string {
	parts := make([]string, len(y))
	for i, v := range y {
		parts[i] = fmt.Sprintf("%.6g", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	s, _, err := buildSession(cfg)
	if err != nil {
		return err
	}
	return tui.Run(s.Iter(), tui.Options{
		Problem:  cfg.Problem,
		Method:   s.Tableau().Name(),
		TInitial: cfg.TInitial,
		TFinal:   cfg.End(),
	})
}

func compareMethods(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[:1])
	if err != nil {
		return err
	}
	problem, sys, err := cfg.Build()
	if err != nil {
		return err
	}

	methods := args[1:]
	jobs := make([]sim.Job, len(methods))
	for i, m := range methods {
		c := *cfg
		c.Method = m
		jobs[i] = sim.Job{
			Name:    m,
			Problem: problem,
			Options: c.SessionOptions(slog.Default()),
			Metrics: trajectoryMetrics(sys, problem),
		}
	}

	fmt.Printf("comparing methods on %s (h=%g, t=[%g, %g])\n\n", cfg.Problem, cfg.StepSize, cfg.TInitial, cfg.End())
	results, err := sim.NewBatch(workers).Run(cmd.Context(), jobs)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tSTEPS\tEVALS\tREJECTED\tFINAL T\tFINAL Y\tGLOBAL ERR\tENERGY DRIFT\tTIME")
	for _, res := range results {
		final := res.Final()
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.6g\t%s\t%s\t%s\t%v\n",
			res.Name,
			res.Stats.Steps,
			res.Stats.Evaluations,
			res.Stats.AccumulatedAttempts,
			final.T,
			formatState(final.Y),
			metricOrDash(res.Metrics, "global_error"),
			metricOrDash(res.Metrics, "energy_drift"),
			res.Elapsed,
		)
	}
	return w.Flush()
}

func metricOrDash(ms map[string]float64, name string) string {
	v, ok := ms[name]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.3e", v)
}
