package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/san-kum/rkode/internal/config"
	"github.com/san-kum/rkode/internal/session"
)

var (
	dataDir string
	verbose bool

	// Run configuration, shared by every command that solves a problem.
	configFile      string
	preset          string
	method          string
	stepSize        float64
	stepSizeMin     float64
	stepSizeMax     float64
	errorThreshold  float64
	safetyFactor    float64
	noExtrapolation bool
	tInitial        float64
	tFinal          float64
	maxSteps        int
	limit           int
	initState       []float64
	params          map[string]string

	save        bool
	showMetrics bool
	showPlot    bool

	components []int
	stepPlot   bool

	exportFormat string
	xAxis        int
	yAxis        int

	component int
	workers   int

	lyapMethod string
	lyapStep   float64
	duration   float64
	transient  float64

	convStep   float64
	convTFinal float64
	levels     int

	tuneStep   float64
	tuneTFinal float64
	target     float64

	showTableau bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "rkode",
		Short:         "explicit runge-kutta ode solver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(newLogger(verbose))
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rkode", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "solve a problem and store the samples",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProblem,
	}
	addSolveFlags(runCmd)
	runCmd.Flags().BoolVar(&save, "save", true, "store the run under the data directory")
	runCmd.Flags().BoolVar(&showMetrics, "metrics", false, "print prometheus metrics for the run")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the solution")

	liveCmd := &cobra.Command{
		Use:   "live [problem]",
		Short: "watch a solution being produced",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSolveFlags(liveCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [problem] [method...]",
		Short: "solve one problem with several methods",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareMethods,
	}
	addSolveFlags(compareCmd)
	compareCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = GOMAXPROCS)")

	methodsCmd := &cobra.Command{
		Use:   "methods [name]",
		Short: "list butcher tableau presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listMethods,
	}
	methodsCmd.Flags().BoolVar(&showTableau, "tableau", false, "print the coefficients")

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list built-in problems",
		RunE:  listProblems,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list run presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for problem: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range names {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntSliceVar(&components, "components", nil, "state components to plot (default all)")
	plotCmd.Flags().BoolVar(&stepPlot, "step-sizes", false, "also plot accepted step sizes")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "json, csv, svg, phase-svg or braille-svg")
	exportCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for the phase-svg x axis")
	exportCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for the phase-svg y axis")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored fixed-step run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&component, "component", 0, "state component to analyze")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [problem]",
		Short: "estimate the largest lyapunov exponent",
		Args:  cobra.ExactArgs(1),
		RunE:  lyapunov,
	}
	lyapunovCmd.Flags().StringVar(&lyapMethod, "method", "rk4", "butcher tableau preset")
	lyapunovCmd.Flags().Float64Var(&lyapStep, "h", 0.01, "step size")
	lyapunovCmd.Flags().Float64Var(&duration, "time", 50, "averaging time")
	lyapunovCmd.Flags().Float64Var(&transient, "transient", 5, "time discarded before averaging")

	convergeCmd := &cobra.Command{
		Use:   "converge [problem] [method...]",
		Short: "measure the observed order of accuracy",
		Args:  cobra.MinimumNArgs(2),
		RunE:  converge,
	}
	convergeCmd.Flags().Float64Var(&convStep, "h", 0.1, "coarsest step size")
	convergeCmd.Flags().Float64Var(&convTFinal, "t-final", 0, "end time (default: problem window)")
	convergeCmd.Flags().IntVar(&levels, "levels", 5, "number of step-halving levels")
	convergeCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = GOMAXPROCS)")

	tuneCmd := &cobra.Command{
		Use:   "tune [problem] [method]",
		Short: "find the cheapest tolerance meeting a global error target",
		Args:  cobra.ExactArgs(2),
		RunE:  tune,
	}
	tuneCmd.Flags().Float64Var(&tuneStep, "h", 0, "initial step size (default: problem suggestion)")
	tuneCmd.Flags().Float64Var(&tuneTFinal, "t-final", 0, "end time (default: problem window)")
	tuneCmd.Flags().Float64Var(&target, "target", 1e-6, "largest acceptable global error")

	rootCmd.AddCommand(runCmd, liveCmd, compareCmd, methodsCmd, problemsCmd, presetsCmd,
		listCmd, plotCmd, exportCmd, analyzeCmd, lyapunovCmd, convergeCmd, tuneCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func addSolveFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use a preset configuration")
	f.StringVar(&method, "method", config.DefaultMethod, "butcher tableau preset")
	f.Float64Var(&stepSize, "h", config.DefaultStepSize, "step size (initial step size for adaptive methods)")
	f.Float64Var(&stepSizeMin, "h-min", 0, "smallest adaptive step (default h/100)")
	f.Float64Var(&stepSizeMax, "h-max", 0, "largest adaptive step (default 10h)")
	f.Float64Var(&errorThreshold, "tol", 0, "adaptive error threshold (default 1e-6)")
	f.Float64Var(&safetyFactor, "safety", session.DefaultSafetyFactor, "adaptive safety factor")
	f.BoolVar(&noExtrapolation, "no-extrapolation", false, "propagate the low-order solution of embedded pairs")
	f.Float64Var(&tInitial, "t0", 0, "initial time")
	f.Float64Var(&tFinal, "t-final", 0, "end time (default: problem window)")
	f.IntVar(&maxSteps, "max-steps", session.DefaultMaxSteps, "step cap")
	f.IntVar(&limit, "limit", session.DefaultLimit, "sample cap")
	f.Float64SliceVar(&initState, "init", nil, "initial state (default: problem default)")
	f.StringToStringVar(&params, "param", nil, "problem parameter, name=value")
}
