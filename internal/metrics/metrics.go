// Package metrics exposes Prometheus instrumentation for simulation runs.
//
// A Metrics value owns its collectors and registers them on the registry it
// is built with, so tests and concurrent runs never share the global one.
// All methods are safe on a nil *Metrics and do nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "motivsim"

// Metrics holds the collectors for one run.
type Metrics struct {
	decisions      *prometheus.CounterVec
	tutorInputs    *prometheus.CounterVec
	masteryUpdates prometheus.Counter
	actionDuration *prometheus.HistogramVec
	learners       *prometheus.CounterVec
	activeLearners prometheus.Gauge
	flushes        *prometheus.CounterVec
	flushErrors    *prometheus.CounterVec
	runDuration    prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: choice (action kind)
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "learner",
			Name:      "decisions_total",
			Help:      "Learner decisions by chosen action",
		}, []string{"choice"}),

		// Labels: action, outcome (correct, incorrect, hint, off_task, ...)
		tutorInputs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tutor",
			Name:      "inputs_total",
			Help:      "Inputs logged by the tutor by action and outcome",
		}, []string{"action", "outcome"}),

		masteryUpdates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tutor",
			Name:      "mastery_updates_total",
			Help:      "Inputs that changed a mastery estimate",
		}),

		// Simulated seconds, not wall time.
		actionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "learner",
			Name:      "action_duration_seconds",
			Help:      "Simulated duration of performed actions",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300, 900, 1800},
		}, []string{"action"}),

		// Labels: status (completed, stopped, failed)
		learners: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sim",
			Name:      "learners_total",
			Help:      "Finished learner simulations by status",
		}, []string{"status"}),

		activeLearners: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sim",
			Name:      "active_learners",
			Help:      "Learner simulations currently running",
		}),

		// Labels: kind (decisions, actions, transactions, sessions)
		flushes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "records_flushed_total",
			Help:      "Records written to the sink by kind",
		}, []string{"kind"}),

		flushErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "flush_errors_total",
			Help:      "Failed sink writes by kind",
		}, []string{"kind"}),

		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sim",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock time of a complete simulation run",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
	}
}

// Decision counts one learner decision.
func (m *Metrics) Decision(choice string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(choice).Inc()
}

// Action records the simulated duration of a performed action.
func (m *Metrics) Action(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.actionDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// TutorInput counts one logged tutor input. applied reports whether the
// input moved a mastery estimate.
func (m *Metrics) TutorInput(act, outcome string, applied bool) {
	if m == nil {
		return
	}
	m.tutorInputs.WithLabelValues(act, outcome).Inc()
	if applied {
		m.masteryUpdates.Inc()
	}
}

// LearnerStarted marks a learner simulation as running.
func (m *Metrics) LearnerStarted() {
	if m == nil {
		return
	}
	m.activeLearners.Inc()
}

// LearnerFinished records a learner's final status.
func (m *Metrics) LearnerFinished(status string) {
	if m == nil {
		return
	}
	m.activeLearners.Dec()
	m.learners.WithLabelValues(status).Inc()
}

// Flushed records a sink write of n records of the given kind.
func (m *Metrics) Flushed(kind string, n int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.flushErrors.WithLabelValues(kind).Inc()
		return
	}
	m.flushes.WithLabelValues(kind).Add(float64(n))
}

// RunFinished records the wall time of a run.
func (m *Metrics) RunFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
}

// WriteFile writes every metric gathered from g to path in the Prometheus
// text format, for node_exporter's textfile collector.
func WriteFile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
