// Package metrics instruments workflow runs with prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var durationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds the workflow collectors. A nil *Metrics is valid and
// records nothing, so services can run uninstrumented in tests.
type Metrics struct {
	workflowRuns     *prometheus.CounterVec
	workflowDuration *prometheus.HistogramVec
	recomputeWrites  *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		workflowRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "casegraph_workflow_runs_total",
			Help: "Workflow invocations by workflow name and terminal status.",
		}, []string{"workflow", "status"}),
		workflowDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "casegraph_workflow_duration_seconds",
			Help:    "Workflow run duration in seconds.",
			Buckets: durationBuckets,
		}, []string{"workflow"}),
		recomputeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "casegraph_hours_recompute_total",
			Help: "Hours recomputation outcomes: updated or unchanged.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.workflowRuns, m.workflowDuration, m.recomputeWrites)
	return m
}

// ObserveRun records one finished workflow run.
func (m *Metrics) ObserveRun(workflow, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.workflowRuns.WithLabelValues(workflow, status).Inc()
	m.workflowDuration.WithLabelValues(workflow).Observe(elapsed.Seconds())
}

// ObserveRecompute records whether a recomputation wrote a corrected
// aggregate or found the cache already consistent.
func (m *Metrics) ObserveRecompute(updated bool) {
	if m == nil {
		return
	}
	outcome := "unchanged"
	if updated {
		outcome = "updated"
	}
	m.recomputeWrites.WithLabelValues(outcome).Inc()
}
