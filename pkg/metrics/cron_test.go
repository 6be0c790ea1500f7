package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsPerJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "bolao-send-ready-groups"

	m.ObserveDuration(job, 250*time.Millisecond)
	m.IncSuccess(job)
	m.IncSuccess(job)
	m.IncFailure(job)
	m.IncSkipped()
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	m.SetLastSuccess(job, at)

	require.Equal(t, float64(2), testutil.ToFloat64(m.success.WithLabelValues(job)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.failure.WithLabelValues(job)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.skipped))
	require.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.last.WithLabelValues(job)))
	require.Equal(t, 1, testutil.CollectAndCount(m.duration, "cartela_cron_job_duration_seconds"))
}

func TestCronJobMetricsBlankJobName(t *testing.T) {
	m := NewCronJobMetrics(prometheus.NewRegistry())
	m.IncFailure("")
	require.Equal(t, float64(1), testutil.ToFloat64(m.failure.WithLabelValues("unknown")))
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.IncSuccess("x")
	m.IncSkipped()
	m.ObserveDuration("x", time.Second)

	NewCronJobMetrics(nil).SetLastSuccess("x", time.Now())
}
