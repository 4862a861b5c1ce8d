package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ValidationsTotal is the required kwality_validations_total counter.
	ValidationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kwality_validations_total",
			Help: "Total number of validations run",
		},
	)

	// ValidationDurationSeconds is the required
	// kwality_validation_duration_seconds gauge: the most recently
	// completed validation's wall-clock duration.
	ValidationDurationSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kwality_validation_duration_seconds",
			Help: "Duration of the most recently completed validation, in seconds",
		},
	)

	// CPUUsagePercent is the required kwality_cpu_usage_percent gauge: the
	// most recently recorded sandbox CPU utilization.
	CPUUsagePercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kwality_cpu_usage_percent",
			Help: "CPU utilization percentage of the most recent sandbox execution",
		},
	)

	// MemoryUsageMB is the required kwality_memory_usage_mb gauge: the most
	// recently recorded sandbox memory usage.
	MemoryUsageMB = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kwality_memory_usage_mb",
			Help: "Memory usage in megabytes of the most recent sandbox execution",
		},
	)

	// ActiveWorkers is the required kwality_active_workers gauge.
	ActiveWorkers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kwality_active_workers",
			Help: "Number of validation workers currently active",
		},
	)

	// ValidationPhaseDuration is an internal histogram (not part of the
	// required exposition, but kept alongside it the way the teacher kept
	// operation-latency histograms next to its required cluster gauges)
	// tracking how long each orchestrator phase takes.
	ValidationPhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kwality_validation_phase_duration_seconds",
			Help:    "Duration of each validation phase in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"phase"},
	)

	// FuzzCampaignDuration is an internal histogram tracking fuzz campaign
	// wall-clock time, independent of the per-phase histogram above.
	FuzzCampaignDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kwality_fuzz_campaign_duration_seconds",
			Help:    "Wall-clock duration of a fuzz campaign in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ContainerEventsTotal counts lifecycle events by kind, feeding both the
	// exposition and the sink's own rollup counters.
	ContainerEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kwality_container_events_total",
			Help: "Total number of sandbox container lifecycle events by kind",
		},
		[]string{"kind"},
	)

	// ErrorsTotal counts recorded errors by kind.
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kwality_errors_total",
			Help: "Total number of recorded errors by kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		ValidationsTotal,
		ValidationDurationSeconds,
		CPUUsagePercent,
		MemoryUsageMB,
		ActiveWorkers,
		ValidationPhaseDuration,
		FuzzCampaignDuration,
		ContainerEventsTotal,
		ErrorsTotal,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
