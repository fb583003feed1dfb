package session

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rkode/internal/ode"
	"github.com/san-kum/rkode/internal/tableau"
)

var (
	quiet  = slog.New(slog.NewTextHandler(io.Discard, nil))
	growth = ode.AutonomousFunc[float64](func(y float64) float64 { return y })
)

func collect[S any](it *Iterator[S]) []ode.Sample[S] {
	var out []ode.Sample[S]
	for {
		v, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

type countingObserver struct {
	steps    int
	embedded int
	below    int
	evals    int
}

func (c *countingObserver) ObserveStep(st ode.StepStats) {
	c.steps++
	c.evals += st.Evaluations
	if st.Embedded {
		c.embedded++
	}
	if st.BelowAccuracy {
		c.below++
	}
}

var _ = Describe("Session", func() {
	Describe("construction", func() {
		It("rejects unknown presets", func() {
			_, err := New[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), Options[float64]{
				Method: "rk9", StepSize: 0.1, TFinal: 1, Logger: quiet,
			})
			Expect(errors.Is(err, ode.ErrUnknownPreset)).To(BeTrue())
		})

		It("accepts an explicit tableau over a method name", func() {
			tab, err := tableau.Lookup("heun")
			Expect(err).NotTo(HaveOccurred())

			s, err := New[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), Options[float64]{
				Method: "does-not-exist", Tableau: tab, StepSize: 0.1, TFinal: 1, Logger: quiet,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Tableau().Name()).To(Equal("heun"))
		})

		It("detects a derivative whose output shape differs from the initial state", func() {
			calls := 0
			f := ode.Func[[]float64](func(y []float64, _ float64) []float64 {
				calls++
				return []float64{y[0]}
			})
			_, err := New[[]float64](ode.Vector{}, ode.NewProblem[[]float64](f, []float64{1, 2}), Options[[]float64]{
				Method: "rk4", StepSize: 0.1, TFinal: 1, Logger: quiet,
			})
			Expect(errors.Is(err, ode.ErrTypeMismatch)).To(BeTrue())
			Expect(calls).To(Equal(1))
		})

		DescribeTable("rejects invalid options",
			func(edit func(o *Options[float64])) {
				opts := Options[float64]{Method: "rkf45", StepSize: 0.1, TFinal: 1, Logger: quiet}
				edit(&opts)
				_, err := New[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), opts)
				Expect(errors.Is(err, ode.ErrInvalidOptions)).To(BeTrue())
			},
			Entry("zero step size", func(o *Options[float64]) { o.StepSize = 0 }),
			Entry("negative step size", func(o *Options[float64]) { o.StepSize = -0.1 }),
			Entry("final time before initial time", func(o *Options[float64]) { o.TFinal = -1 }),
			Entry("NaN final time", func(o *Options[float64]) { o.TFinal = math.NaN() }),
			Entry("negative max steps", func(o *Options[float64]) { o.MaxSteps = -1 }),
			Entry("negative limit", func(o *Options[float64]) { o.Limit = -3 }),
			Entry("safety factor above one", func(o *Options[float64]) { o.SafetyFactor = 1.2 }),
			Entry("min above max", func(o *Options[float64]) { o.StepSizeMin = 1; o.StepSizeMax = 0.5 }),
			Entry("negative threshold", func(o *Options[float64]) { o.ErrorThreshold = -1 }),
		)

		It("fills adaptive defaults from the step size", func() {
			s, err := New[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), Options[float64]{
				Method: "dp45", StepSize: 0.2, TFinal: 1, Logger: quiet,
			})
			Expect(err).NotTo(HaveOccurred())

			opts := s.Options()
			Expect(opts.StepSizeMin).To(BeNumerically("~", 0.002, 1e-15))
			Expect(opts.StepSizeMax).To(BeNumerically("~", 2, 1e-15))
			Expect(opts.SafetyFactor).To(Equal(0.9))
			Expect(opts.MaxSteps).To(Equal(500))
			Expect(opts.Limit).To(Equal(1000))
		})
	})

	Describe("fixed-step sequences", func() {
		It("starts with the unmodified initial condition", func() {
			s, err := New[float64](ode.Scalar{}, ode.Problem[float64]{Derivative: growth, YInitial: 1, TInitial: 0.5}, Options[float64]{
				Method: "rk4", StepSize: 0.1, TFinal: 1, Logger: quiet,
			})
			Expect(err).NotTo(HaveOccurred())

			first, ok := s.Iter().Next()
			Expect(ok).To(BeTrue())
			Expect(first.T).To(Equal(0.5))
			Expect(first.Y).To(Equal(1.0))
			Expect(first.StepSize).To(BeZero())
			Expect(first.Adaptive).To(BeNil())
		})

		It("takes an exact Euler step for y' = y", func() {
			samples, err := Solve[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), Options[float64]{
				Method: "euler", StepSize: 1, TFinal: 1, Logger: quiet,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(samples).To(HaveLen(2))
			Expect(samples[1].T).To(Equal(1.0))
			Expect(samples[1].Y).To(Equal(2.0))
			Expect(samples[1].StepSize).To(Equal(1.0))
		})

		DescribeTable("emits floor((tFinal - tInitial)/h) steps",
			func(method string, t0, tf, h float64) {
				samples, err := Solve[float64](ode.Scalar{}, ode.Problem[float64]{Derivative: growth, YInitial: 1, TInitial: t0}, Options[float64]{
					Method: method, StepSize: h, TFinal: tf, Logger: quiet,
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(samples).To(HaveLen(int(math.Floor((tf-t0)/h)) + 1))

				for i, smp := range samples {
					Expect(smp.T).To(BeNumerically("~", t0+float64(i)*h, 1e-12))
					Expect(smp.T).To(BeNumerically("<=", tf+1e-12))
				}
			},
			Entry("euler, h=0.1", "euler", 0.0, 1.0, 0.1),
			Entry("rk4, h=0.25", "rk4", 0.0, 1.0, 0.25),
			Entry("midpoint, h=0.3", "midpoint", 0.0, 1.0, 0.3),
			Entry("ssprk3, offset start", "ssprk3", 1.0, 3.2, 0.5),
			Entry("heun, empty span", "heun", 2.0, 2.0, 0.1),
			Entry("ralston, step larger than span", "ralston", 0.0, 0.05, 0.1),
		)

		It("stops at maxSteps", func() {
			samples, err := Solve[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1e-3), Options[float64]{
				Method: "euler", StepSize: 1e-3, TFinal: 1e6, MaxSteps: 25, Logger: quiet,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(samples).To(HaveLen(26))
		})

		It("converges like a fourth order method", func() {
			errAt := func(h float64) float64 {
				samples, err := Solve[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), Options[float64]{
					Method: "rk4", StepSize: h, TFinal: 2, Logger: quiet,
				})
				Expect(err).NotTo(HaveOccurred())
				last := samples[len(samples)-1]
				Expect(last.T).To(BeNumerically("~", 2, 1e-12))
				return math.Abs(last.Y - math.Exp(2))
			}
			Expect(errAt(0.25) / errAt(0.125)).To(BeNumerically("~", 16, 3))
		})

		It("solves vector problems", func() {
			f := ode.Func[[]float64](func(y []float64, _ float64) []float64 { return []float64{y[1], -y[0]} })
			samples, err := Solve[[]float64](ode.Vector{}, ode.NewProblem[[]float64](f, []float64{1, 0}), Options[[]float64]{
				Method: "rk4", StepSize: 0.01, TFinal: 1, Logger: quiet,
			})
			Expect(err).NotTo(HaveOccurred())
			last := samples[len(samples)-1]
			Expect(last.Y[0]).To(BeNumerically("~", math.Cos(1), 1e-8))
			Expect(last.Y[1]).To(BeNumerically("~", -math.Sin(1), 1e-8))
		})

		It("restarts for every Iter call", func() {
			s, err := New[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), Options[float64]{
				Method: "midpoint", StepSize: 0.1, TFinal: 1, Logger: quiet,
			})
			Expect(err).NotTo(HaveOccurred())

			a := s.Iter()
			a.Next()
			a.Next()
			b := s.Iter()

			first, _ := b.Next()
			Expect(first.T).To(BeZero())

			rest := collect(a)
			Expect(rest).To(HaveLen(9))
			Expect(collect(b)).To(HaveLen(10))
			Expect(a.Done()).To(BeTrue())

			_, ok := a.Next()
			Expect(ok).To(BeFalse())
		})

		It("counts derivative evaluations and notifies the observer", func() {
			obs := &countingObserver{}
			s, err := New[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), Options[float64]{
				Method: "rk4", StepSize: 0.5, TFinal: 2, Logger: quiet, Observer: obs,
			})
			Expect(err).NotTo(HaveOccurred())

			it := s.Iter()
			collect(it)
			Expect(it.Stats().Steps).To(Equal(4))
			Expect(it.Stats().Evaluations).To(Equal(16))
			Expect(obs.steps).To(Equal(4))
			Expect(obs.evals).To(Equal(16))
			Expect(obs.embedded).To(BeZero())
		})

		It("hands out a copy of the initial state", func() {
			f := ode.AutonomousFunc[[]float64](func(y []float64) []float64 { return []float64{-y[0], -y[1]} })
			p := ode.NewProblem[[]float64](f, []float64{1, 2})
			s, err := New[[]float64](ode.Vector{}, p, Options[[]float64]{
				Method: "rk4", StepSize: 0.1, TFinal: 1, Logger: quiet,
			})
			Expect(err).NotTo(HaveOccurred())

			first, ok := s.Iter().Next()
			Expect(ok).To(BeTrue())
			first.Y[0] = 99

			Expect(p.YInitial).To(Equal([]float64{1, 2}))
			again, _ := s.Iter().Next()
			Expect(again.Y).To(Equal([]float64{1, 2}))
		})

		It("supports range-over-func with early exit", func() {
			s, err := New[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), Options[float64]{
				Method: "euler", StepSize: 0.1, TFinal: 10, Logger: quiet,
			})
			Expect(err).NotTo(HaveOccurred())

			count := 0
			for smp := range s.All() {
				count++
				if smp.T >= 0.45 {
					break
				}
			}
			Expect(count).To(Equal(6))
		})
	})

	Describe("adaptive sequences", func() {
		newAdaptive := func(method string, opts Options[float64], f ode.Derivative[float64], y0 float64) *Session[float64] {
			opts.Method = method
			if opts.Logger == nil {
				opts.Logger = quiet
			}
			s, err := New[float64](ode.Scalar{}, ode.NewProblem[float64](f, y0), opts)
			Expect(err).NotTo(HaveOccurred())
			return s
		}

		It("reaches tFinal with step sizes inside the bounds", func() {
			opts := Options[float64]{StepSize: 0.1, StepSizeMin: 1e-3, StepSizeMax: 0.5, ErrorThreshold: 1e-9, TFinal: 3}
			samples, err := newAdaptive("dp45", opts, growth, 1).Solve()
			Expect(err).NotTo(HaveOccurred())

			last := samples[len(samples)-1]
			Expect(last.T).To(BeNumerically("~", 3, 1e-3))
			Expect(last.Y).To(BeNumerically("~", math.Exp(last.T), 1e-5))

			accErr, accAttempts := 0.0, 0
			for i, smp := range samples {
				Expect(smp.Adaptive).NotTo(BeNil())
				Expect(smp.T).To(BeNumerically("<=", 3))
				if i == 0 {
					continue
				}
				Expect(smp.T).To(BeNumerically(">", samples[i-1].T))
				Expect(smp.StepSize).To(BeNumerically(">=", 1e-3*(1-1e-9)))
				Expect(smp.StepSize).To(BeNumerically("<=", 0.5))

				accErr += smp.Adaptive.StepError
				accAttempts += smp.Adaptive.StepAttempts
				Expect(smp.Adaptive.AccumulatedError).To(BeNumerically("~", accErr, 1e-18))
				Expect(smp.Adaptive.AccumulatedAttempts).To(Equal(accAttempts))
			}
		})

		It("stops when the remaining span is below the minimum step", func() {
			opts := Options[float64]{StepSize: 0.4, StepSizeMin: 0.4, StepSizeMax: 0.4, ErrorThreshold: 1, TFinal: 1}
			samples, err := newAdaptive("rkf45", opts, growth, 1).Solve()
			Expect(err).NotTo(HaveOccurred())
			Expect(samples).To(HaveLen(3))
			Expect(samples[2].T).To(BeNumerically("~", 0.8, 1e-12))
		})

		It("keeps error estimates independent of local extrapolation", func() {
			f := ode.Func[float64](func(_, t float64) float64 { return math.Cos(3 * t) })
			opts := Options[float64]{StepSize: 0.05, ErrorThreshold: 1e-7, TFinal: 2}

			with, err := newAdaptive("bs23", opts, f, 0).Solve()
			Expect(err).NotTo(HaveOccurred())
			opts.DisableLocalExtrapolation = true
			without, err := newAdaptive("bs23", opts, f, 0).Solve()
			Expect(err).NotTo(HaveOccurred())

			Expect(with).To(HaveLen(len(without)))
			Expect(with[1].Adaptive.StepError).To(Equal(without[1].Adaptive.StepError))
			Expect(with[1].Y).NotTo(Equal(without[1].Y))

			differ := false
			for i := range with {
				Expect(with[i].T).To(BeNumerically("~", without[i].T, 1e-6))
				Expect(with[i].Adaptive.StepError).To(BeNumerically("~", without[i].Adaptive.StepError, 1e-4*opts.ErrorThreshold))
				if with[i].Y != without[i].Y {
					differ = true
				}
			}
			Expect(differ).To(BeTrue())
		})

		It("logs accuracy warnings at the step size floor and continues", func() {
			var buf bytes.Buffer
			obs := &countingObserver{}
			opts := Options[float64]{
				StepSize:       0.5,
				StepSizeMin:    0.25,
				StepSizeMax:    0.5,
				ErrorThreshold: 1e-14,
				TFinal:         1,
				Logger:         slog.New(slog.NewTextHandler(&buf, nil)),
				Observer:       obs,
			}
			s := newAdaptive("euler-heun", opts, growth, 1)

			it := s.Iter()
			samples := collect(it)
			Expect(samples).To(HaveLen(5))
			Expect(samples[4].T).To(Equal(1.0))
			Expect(it.Stats().AccuracyWarnings).To(Equal(4))
			Expect(obs.below).To(Equal(4))
			Expect(obs.embedded).To(Equal(4))
			Expect(buf.String()).To(ContainSubstring("adaptive step accepted below requested accuracy"))
		})

		It("reports the suggested first step on the initial sample", func() {
			s := newAdaptive("rkf12", Options[float64]{StepSize: 0.1, TFinal: 1}, growth, 1)
			first, ok := s.Iter().Next()
			Expect(ok).To(BeTrue())
			Expect(first.Adaptive).NotTo(BeNil())
			Expect(first.Adaptive.StepSizeNext).To(Equal(0.1))
			Expect(first.Adaptive.StepError).To(BeZero())
		})
	})

	Describe("Solve limits", func() {
		It("warns and returns a truncated solution with the default callback", func() {
			var buf bytes.Buffer
			samples, err := Solve[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), Options[float64]{
				Method: "euler", StepSize: 0.1, TFinal: 100, Limit: 7,
				Logger: slog.New(slog.NewTextHandler(&buf, nil)),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(samples).To(HaveLen(7))
			Expect(buf.String()).To(ContainSubstring("solution exited early"))
		})

		It("returns the callback result in place of natural completion", func() {
			stop := errors.New("stopped")
			var pendingT float64
			calls := 0
			opts := Options[float64]{Method: "euler", StepSize: 0.1, TFinal: 100, Limit: 3, Logger: quiet}
			opts.LimitCallback = func(pending ode.Sample[float64], delivered int, _ Sequence[ode.Sample[float64]]) error {
				calls++
				pendingT = pending.T
				Expect(delivered).To(Equal(3))
				return stop
			}
			samples, err := Solve[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), opts)
			Expect(err).To(MatchError(stop))
			Expect(samples).To(HaveLen(3))
			Expect(calls).To(Equal(1))
			Expect(pendingT).To(BeNumerically("~", 0.3, 1e-12))
		})

		It("does not report the step drawn only to detect the cap", func() {
			obs := &countingObserver{}
			samples, err := Solve[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), Options[float64]{
				Method: "euler", StepSize: 0.1, TFinal: 100, Limit: 4, Logger: quiet, Observer: obs,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(samples).To(HaveLen(4))
			Expect(obs.steps).To(Equal(3))
		})

		It("lets the callback keep consuming the source", func() {
			obs := &countingObserver{}
			var more []float64
			opts := Options[float64]{Method: "euler", StepSize: 0.1, TFinal: 100, Limit: 3, Logger: quiet, Observer: obs}
			opts.LimitCallback = func(pending ode.Sample[float64], _ int, src Sequence[ode.Sample[float64]]) error {
				more = append(more, pending.T)
				for range 2 {
					v, ok := src.Next()
					Expect(ok).To(BeTrue())
					more = append(more, v.T)
				}
				return nil
			}
			samples, err := Solve[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(samples).To(HaveLen(3))
			Expect(more).To(HaveLen(3))
			Expect(more[0]).To(BeNumerically("~", 0.3, 1e-12))
			Expect(more[2]).To(BeNumerically("~", 0.5, 1e-12))
			Expect(obs.steps).To(Equal(4))
		})

		It("does not call back when the solution fits", func() {
			opts := Options[float64]{Method: "euler", StepSize: 0.1, TFinal: 1, Limit: 11, Logger: quiet}
			opts.LimitCallback = func(ode.Sample[float64], int, Sequence[ode.Sample[float64]]) error {
				Fail("callback must not run")
				return nil
			}
			samples, err := Solve[float64](ode.Scalar{}, ode.NewProblem[float64](growth, 1), opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(samples).To(HaveLen(11))
		})
	})
})
