// Package metrics holds the Prometheus collectors for background work. Every
// recorder is nil-safe so callers can run without a registry in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cartela"

// CronJobMetrics tracks each scheduled job by name.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	last     *prometheus.GaugeVec
	skipped  prometheus.Counter
}

func cronOpts(name, help string) prometheus.Opts {
	return prometheus.Opts{Namespace: namespace, Subsystem: "cron", Name: name, Help: help}
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	byJob := []string{"job"}
	durationOpts := cronOpts("job_duration_seconds", "Wall time of one job run.")
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: durationOpts.Namespace,
			Subsystem: durationOpts.Subsystem,
			Name:      durationOpts.Name,
			Help:      durationOpts.Help,
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, byJob),
		success: prometheus.NewCounterVec(prometheus.CounterOpts(cronOpts("job_success_total", "Job runs that returned no error.")), byJob),
		failure: prometheus.NewCounterVec(prometheus.CounterOpts(cronOpts("job_failure_total", "Job runs that returned an error.")), byJob),
		last:    prometheus.NewGaugeVec(prometheus.GaugeOpts(cronOpts("job_last_success_timestamp_seconds", "Unix time of the last clean run.")), byJob),
		skipped: prometheus.NewCounter(prometheus.CounterOpts(cronOpts("cycles_skipped_total", "Ticks skipped while another replica held the lock."))),
	}
	reg.MustRegister(m.duration, m.success, m.failure, m.last, m.skipped)
	return m
}

func (c *CronJobMetrics) ObserveDuration(job string, d time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(d.Seconds())
}

func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(job)).Inc()
}

func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

func (c *CronJobMetrics) SetLastSuccess(job string, at time.Time) {
	if c == nil || c.last == nil {
		return
	}
	c.last.WithLabelValues(normalizeLabel(job)).Set(float64(at.Unix()))
}

func (c *CronJobMetrics) IncSkipped() {
	if c == nil || c.skipped == nil {
		return
	}
	c.skipped.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
