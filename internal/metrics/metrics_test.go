package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(reg), reg
}

func TestDecisionAndTutorInputCounters(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.Decision("attempt")
	m.Decision("attempt")
	m.Decision("guess")
	m.TutorInput("attempt", "correct", true)
	m.TutorInput("attempt", "incorrect", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("attempt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("guess")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tutorInputs.WithLabelValues("attempt", "correct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.masteryUpdates))
}

func TestLearnerLifecycle(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.LearnerStarted()
	m.LearnerStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.activeLearners))

	m.LearnerFinished("completed")
	m.LearnerFinished("failed")
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeLearners))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.learners.WithLabelValues("failed")))
}

func TestFlushed(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.Flushed("transactions", 120, nil)
	m.Flushed("transactions", 30, nil)
	m.Flushed("transactions", 5, errors.New("boom"))

	assert.Equal(t, 150.0, testutil.ToFloat64(m.flushes.WithLabelValues("transactions")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flushErrors.WithLabelValues("transactions")))
}

func TestHistograms(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.Action("attempt", 12*time.Second)
	m.RunFinished(time.Second)

	n, err := testutil.GatherAndCount(reg, "motivsim_learner_action_duration_seconds", "motivsim_sim_run_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Decision("attempt")
		m.Action("attempt", time.Second)
		m.TutorInput("attempt", "correct", true)
		m.LearnerStarted()
		m.LearnerFinished("completed")
		m.Flushed("actions", 1, nil)
		m.RunFinished(time.Second)
	})
}

func TestWriteFile(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.Decision("hint_request")

	path := filepath.Join(t.TempDir(), "motivsim.prom")
	require.NoError(t, WriteFile(path, reg))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `motivsim_learner_decisions_total{choice="hint_request"} 1`))
}
