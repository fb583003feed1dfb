package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/rkode/internal/export"
	"github.com/san-kum/rkode/internal/storage"
	"github.com/san-kum/rkode/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tMETHOD\tTIME\tSPAN\tH\tSTEPS\tEVALS")

	for _, run := range runs {
		h := fmt.Sprintf("%g", run.StepSize)
		if run.Adaptive {
			h += fmt.Sprintf(" (tol %g)", run.ErrorThreshold)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t[%g, %g]\t%s\t%d\t%d\n",
			run.ID,
			run.Problem,
			run.Method,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TInitial, run.TFinal,
			h,
			run.Steps,
			run.Evaluations,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
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

	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	states := make([][]float64, len(samples))
	stepSizes := make([]float64, len(samples))
	for i, s := range samples {
		states[i] = s.Y
		stepSizes[i] = s.StepSize
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s  method: %s\n", meta.Problem, meta.Method)
	fmt.Printf("samples: %d\n\n", len(states))

	graph, err := viz.PlotComponents(states, components, viz.PlotOptions{
		Width:   80,
		Height:  12,
		Caption: fmt.Sprintf("%s over sample index", meta.Problem),
	})
	if err != nil {
		return err
	}
	fmt.Println(graph)

	if stepPlot && len(stepSizes) > 1 {
		graph, err := viz.PlotStepSizes(stepSizes[1:], viz.PlotOptions{Width: 80, Height: 8, Caption: "accepted step size"})
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(graph)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
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
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}

	switch exportFormat {
	case "json":
		return storage.ExportJSON(os.Stdout, *meta, samples)
	case "csv":
		return storage.WriteCSV(os.Stdout, samples)
	case "svg":
		dim := len(samples[0].Y)
		curves := make([]export.Curve, dim)
		for c := range curves {
			curves[c].X = make([]float64, len(samples))
			curves[c].Y = make([]float64, len(samples))
			for i, s := range samples {
				curves[c].X[i] = s.T
				curves[c].Y[i] = s.Y[c]
			}
		}
		return export.WriteCurvesSVG(os.Stdout, curves, 800, 400)
	case "phase-svg":
		if dim := len(samples[0].Y); xAxis >= dim || yAxis >= dim || xAxis < 0 || yAxis < 0 {
			return fmt.Errorf("state dimension %d too small for axes %d, %d", dim, xAxis, yAxis)
		}
		curve := export.Curve{X: make([]float64, len(samples)), Y: make([]float64, len(samples))}
		for i, s := range samples {
			curve.X[i], curve.Y[i] = s.Y[xAxis], s.Y[yAxis]
		}
		return export.WriteCurvesSVG(os.Stdout, []export.Curve{curve}, 600, 600)
	case "braille-svg":
		xs := make([]float64, len(samples))
		ys := make([]float64, len(samples))
		for i, s := range samples {
			if len(s.Y) > 1 {
				xs[i], ys[i] = s.Y[0], s.Y[1]
			} else {
				xs[i], ys[i] = s.T, s.Y[0]
			}
		}
		return export.WriteCanvasSVG(os.Stdout, viz.PhasePortrait(xs, ys, 60, 20), 4)
	default:
		return fmt.Errorf("unknown export format %q (json, csv, svg, phase-svg, braille-svg)", exportFormat)
	}
}
