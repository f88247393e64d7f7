// Package metrics exposes prometheus instruments for the sweep scheduler and
// settlement paths.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type SchedulerMetrics struct {
	jobRuns     *prometheus.CounterVec
	jobErrors   *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	payments    *prometheus.CounterVec
}

var scheduler = newSchedulerMetrics(prometheus.DefaultRegisterer)

// Scheduler returns the process-wide scheduler instruments.
func Scheduler() *SchedulerMetrics { return scheduler }

func newSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	factory := promauto.With(reg)
	return &SchedulerMetrics{
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duebook",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Number of sweep job invocations.",
		}, []string{"job"}),
		jobErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duebook",
			Subsystem: "scheduler",
			Name:      "job_errors_total",
			Help:      "Number of sweep job invocations that returned an error.",
		}, []string{"job"}),
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "duebook",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Sweep job wall time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		payments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duebook",
			Subsystem: "ledger",
			Name:      "payments_total",
			Help:      "Ledger entries materialized or settled, by source.",
		}, []string{"source"}),
	}
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string) {
	m.jobErrors.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SchedulerMetrics) IncPayments(source string, n int) {
	if n > 0 {
		m.payments.WithLabelValues(source).Add(float64(n))
	}
}
