package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/san-kum/rkode/internal/ode"
)

const namespace = "rkode"

// Collector counts integration work per method.
type Collector struct {
	steps       *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	warnings    *prometheus.CounterVec
	evaluations *prometheus.CounterVec
	stepSize    *prometheus.HistogramVec
	stepError   *prometheus.HistogramVec
}

// NewCollector registers the step metrics on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "steps_total",
			Help:      "Accepted integration steps",
		}, []string{"method"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "rejected_attempts_total",
			Help:      "Adaptive step attempts rejected before acceptance",
		}, []string{"method"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "accuracy_warnings_total",
			Help:      "Adaptive steps accepted at the minimum step size above the error threshold",
		}, []string{"method"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "derivative_evaluations_total",
			Help:      "Derivative function evaluations",
		}, []string{"method"}),
		stepSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "step_size",
			Help:      "Size of accepted steps",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 10, 8),
		}, []string{"method"}),
		stepError: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "step_error",
			Help:      "Embedded error estimate of accepted adaptive steps",
			Buckets:   prometheus.ExponentialBuckets(1e-14, 100, 8),
		}, []string{"method"}),
	}

	for _, col := range []prometheus.Collector{c.steps, c.rejected, c.warnings, c.evaluations, c.stepSize, c.stepError} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

// For returns a session observer that records under the method label.
func (c *Collector) For(method string) *MethodObserver {
	return &MethodObserver{
		steps:       c.steps.WithLabelValues(method),
		rejected:    c.rejected.WithLabelValues(method),
		warnings:    c.warnings.WithLabelValues(method),
		evaluations: c.evaluations.WithLabelValues(method),
		stepSize:    c.stepSize.WithLabelValues(method),
		stepError:   c.stepError.WithLabelValues(method),
	}
}

type MethodObserver struct {
	steps       prometheus.Counter
	rejected    prometheus.Counter
	warnings    prometheus.Counter
	evaluations prometheus.Counter
	stepSize    prometheus.Observer
	stepError   prometheus.Observer
}

func (o *MethodObserver) ObserveStep(st ode.StepStats) {
	o.steps.Inc()
	o.evaluations.Add(float64(st.Evaluations))
	o.stepSize.Observe(st.StepSize)
	if !st.Embedded {
		return
	}
	o.rejected.Add(float64(st.StepAttempts))
	o.stepError.Observe(st.StepError)
	if st.BelowAccuracy {
		o.warnings.Inc()
	}
}

// WriteText dumps every family gathered from g in the text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
