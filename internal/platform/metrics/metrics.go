package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	ScansTotal         *prometheus.CounterVec
	CleanupRunsTotal   *prometheus.CounterVec
	CleanupDeleted     prometheus.Counter
	CleanupFailed      prometheus.Counter
	AuditsTotal        prometheus.Counter
	DeletionsTotal     *prometheus.CounterVec
	DeletionDuration   prometheus.Histogram
	NotificationsTotal *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifecycle_eligibility_scans_total",
			Help: "Eligibility scans executed, by data type.",
		}, []string{"data_type"}),
		CleanupRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifecycle_cleanup_runs_total",
			Help: "Retention cleanup runs, by mode.",
		}, []string{"mode"}),
		CleanupDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lifecycle_cleanup_deleted_total",
			Help: "Records deleted by retention cleanup.",
		}),
		CleanupFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lifecycle_cleanup_failed_total",
			Help: "Per-item deletion failures during retention cleanup.",
		}),
		AuditsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lifecycle_minimization_audits_total",
			Help: "Minimization audits completed.",
		}),
		DeletionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifecycle_deletion_executions_total",
			Help: "Account deletion executions, by terminal status.",
		}, []string{"status"}),
		DeletionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifecycle_deletion_duration_seconds",
			Help:    "Wall time of account deletion executions.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifecycle_notifications_total",
			Help: "Notification dispatch outcomes.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		m.ScansTotal,
		m.CleanupRunsTotal,
		m.CleanupDeleted,
		m.CleanupFailed,
		m.AuditsTotal,
		m.DeletionsTotal,
		m.DeletionDuration,
		m.NotificationsTotal,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveDeletion(status string, elapsed time.Duration) {
	m.DeletionsTotal.WithLabelValues(status).Inc()
	m.DeletionDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) RecordScan(dataType string) {
	m.ScansTotal.WithLabelValues(dataType).Inc()
}

func (m *Metrics) RecordCleanup(dryRun bool, deleted, failed int) {
	mode := "live"
	if dryRun {
		mode = "dry_run"
	}
	m.CleanupRunsTotal.WithLabelValues(mode).Inc()
	m.CleanupDeleted.Add(float64(deleted))
	m.CleanupFailed.Add(float64(failed))
}

func (m *Metrics) RecordAudit() {
	m.AuditsTotal.Inc()
}

func (m *Metrics) RecordNotification(outcome string) {
	m.NotificationsTotal.WithLabelValues(outcome).Inc()
}
