package metrics

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/kwality/kwality/pkg/log"
	"github.com/kwality/kwality/pkg/types"
)

const (
	errorRateAlertThreshold    = 10.0 // errors/minute
	cpuAlertThreshold          = 90.0 // percent
	throughputAlertThreshold   = 0.1  // validations/second
	recentErrorsLimit          = 100
)

// Sink is the Metrics Sink: process-wide rollup counters, bounded
// time-series ring buffers, and textual Prometheus export. It is shared by
// every in-flight validation, so its four concerns sit behind separate
// locks per the design's concurrency contract: the rollup mutex guards
// counters and moving averages; the error mutex guards the error rollup and
// recent-error queue; the series mutex guards the four ring buffers; the
// status mutex guards the system-status snapshot. No
// method holds a lock longer than it takes to touch its own fields.
type Sink struct {
	rollupMu sync.RWMutex
	total    int64
	success  int64
	failed   int64
	meanDur  float64 // seconds, incremental moving average
	firstAt  time.Time

	cpu, mem, peakMem float64
	diskIO, netIO     int64

	containersCreated, containersDestroyed int64
	containersFailed, resourceViolations   int64

	errMu       sync.Mutex
	errTotal    int64
	errByKind   map[string]int64
	recentErrs  []*types.ErrorEvent
	errWindowStart time.Time
	errInWindow    int64

	seriesMu      sync.Mutex
	validationTS  *ring
	cpuTS         *ring
	memTS         *ring
	errRateTS     *ring

	statusMu sync.RWMutex
	status   types.SystemStatus
}

// NewSink constructs an empty Sink with the default ring-buffer capacity.
func NewSink() *Sink {
	now := time.Now()
	return &Sink{
		firstAt:        now,
		errByKind:      make(map[string]int64),
		errWindowStart: now,
		validationTS:   newRing(defaultRingCapacity),
		cpuTS:          newRing(defaultRingCapacity),
		memTS:          newRing(defaultRingCapacity),
		errRateTS:      newRing(defaultRingCapacity),
	}
}

// RecordValidation folds one completed validation into the rollup counters
// and the validation-time series. perEngine is accepted for forward
// compatibility with a future per-engine breakdown view; today it is not
// retained beyond the call.
func (s *Sink) RecordValidation(duration time.Duration, success bool, score float64, perEngine map[string]float64) {
	s.rollupMu.Lock()
	s.total++
	if success {
		s.success++
	} else {
		s.failed++
	}
	n := float64(s.total)
	s.meanDur = s.meanDur*(n-1)/n + duration.Seconds()/n
	s.rollupMu.Unlock()

	ValidationsTotal.Inc()
	ValidationDurationSeconds.Set(duration.Seconds())

	s.seriesMu.Lock()
	s.validationTS.push(&types.RingPoint{Timestamp: time.Now(), Value: duration.Seconds()})
	s.seriesMu.Unlock()
}

// RecordPerformance folds one sandbox resource sample into the rollup
// gauges and the CPU/memory time series.
func (s *Sink) RecordPerformance(cpu, memoryMB, diskIOBytes, networkIOBytes float64) {
	s.rollupMu.Lock()
	s.cpu = cpu
	s.mem = memoryMB
	if memoryMB > s.peakMem {
		s.peakMem = memoryMB
	}
	s.diskIO += int64(diskIOBytes)
	s.netIO += int64(networkIOBytes)
	s.rollupMu.Unlock()

	CPUUsagePercent.Set(cpu)
	MemoryUsageMB.Set(memoryMB)

	now := time.Now()
	s.seriesMu.Lock()
	s.cpuTS.push(&types.RingPoint{Timestamp: now, Value: cpu})
	s.memTS.push(&types.RingPoint{Timestamp: now, Value: memoryMB})
	s.seriesMu.Unlock()
}

// RecordContainerEvent folds one sandbox lifecycle event into the rollup
// counters.
func (s *Sink) RecordContainerEvent(event types.ContainerEvent) {
	s.rollupMu.Lock()
	switch event.Kind {
	case types.ContainerEventCreated:
		s.containersCreated++
	case types.ContainerEventDestroyed:
		s.containersDestroyed++
	case types.ContainerEventFailed:
		s.containersFailed++
	case types.ContainerEventResourceViolation:
		s.resourceViolations++
	}
	s.rollupMu.Unlock()

	ContainerEventsTotal.WithLabelValues(string(event.Kind)).Inc()
}

// RecordError folds one error into the error rollup, the recent-errors
// bounded queue, and the error-rate time series.
func (s *Sink) RecordError(kind, message string, severity types.Severity) {
	now := time.Now()

	s.errMu.Lock()
	s.errTotal++
	s.errByKind[kind]++
	s.recentErrs = append(s.recentErrs, &types.ErrorEvent{
		Kind: kind, Message: message, Severity: severity, Timestamp: now,
	})
	if len(s.recentErrs) > recentErrorsLimit {
		s.recentErrs = s.recentErrs[len(s.recentErrs)-recentErrorsLimit:]
	}
	if now.Sub(s.errWindowStart) > time.Minute {
		s.errWindowStart = now
		s.errInWindow = 0
	}
	s.errInWindow++
	rate := float64(s.errInWindow) / now.Sub(s.errWindowStart).Minutes()
	if now.Sub(s.errWindowStart) < time.Second {
		rate = float64(s.errInWindow) // avoid dividing by a near-zero window
	}
	s.errMu.Unlock()

	ErrorsTotal.WithLabelValues(kind).Inc()

	s.seriesMu.Lock()
	s.errRateTS.push(&types.RingPoint{Timestamp: now, Value: rate})
	s.seriesMu.Unlock()

	log.WithComponent("metrics").Warn().
		Str("kind", kind).
		Str("severity", string(severity)).
		Msg(message)
}

// UpdateSystemStatus records the most recent worker/queue/health snapshot.
func (s *Sink) UpdateSystemStatus(activeWorkers, queueDepth int, healthy bool) {
	s.statusMu.Lock()
	s.status = types.SystemStatus{
		ActiveWorkers: activeWorkers,
		QueueDepth:    queueDepth,
		Healthy:       healthy,
		UpdatedAt:     time.Now(),
	}
	s.statusMu.Unlock()

	ActiveWorkers.Set(float64(activeWorkers))
}

// Snapshot returns a point-in-time copy of the sink's full state, including
// freshly-evaluated threshold alerts.
func (s *Sink) Snapshot() *types.MetricsSnapshot {
	s.rollupMu.RLock()
	elapsed := time.Since(s.firstAt).Seconds()
	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(s.total) / elapsed
	}
	snap := &types.MetricsSnapshot{
		TotalValidations:      s.total,
		SuccessfulValidations: s.success,
		FailedValidations:     s.failed,
		MeanDurationSeconds:   s.meanDur,
		ThroughputPerSecond:   throughput,

		CPUUsagePercent: s.cpu,
		MemoryMB:        s.mem,
		PeakMemoryMB:    s.peakMem,
		DiskIOBytes:     s.diskIO,
		NetworkIOBytes:  s.netIO,

		ContainersCreated:           s.containersCreated,
		ContainersDestroyed:         s.containersDestroyed,
		ContainersFailed:            s.containersFailed,
		ContainerResourceViolations: s.resourceViolations,
	}
	s.rollupMu.RUnlock()

	s.errMu.Lock()
	snap.ErrorsTotal = s.errTotal
	if time.Since(s.errWindowStart) > 0 {
		snap.ErrorRatePerMinute = float64(s.errInWindow) / timeSinceMinutes(s.errWindowStart)
	}
	snap.ErrorsByKind = make(map[string]int64, len(s.errByKind))
	for k, v := range s.errByKind {
		snap.ErrorsByKind[k] = v
	}
	snap.RecentErrors = append([]*types.ErrorEvent(nil), s.recentErrs...)
	s.errMu.Unlock()

	s.seriesMu.Lock()
	snap.ValidationTimeSeries = s.validationTS.snapshot()
	snap.CPUTimeSeries = s.cpuTS.snapshot()
	snap.MemoryTimeSeries = s.memTS.snapshot()
	snap.ErrorRateTimeSeries = s.errRateTS.snapshot()
	s.seriesMu.Unlock()

	s.statusMu.RLock()
	snap.System = s.status
	s.statusMu.RUnlock()

	snap.Alerts = evaluateAlerts(snap)

	return snap
}

func timeSinceMinutes(since time.Time) float64 {
	m := time.Since(since).Minutes()
	if m < 1.0/60.0 {
		return 1.0 / 60.0 // floor at one second to avoid a divide-by-near-zero spike
	}
	return m
}

// evaluateAlerts applies the three fixed thresholds against a snapshot.
func evaluateAlerts(snap *types.MetricsSnapshot) []*types.Alert {
	var alerts []*types.Alert
	now := time.Now()

	if snap.ErrorRatePerMinute > errorRateAlertThreshold {
		alerts = append(alerts, &types.Alert{
			Kind: types.AlertHighErrorRate, Severity: types.AlertSeverityCritical,
			Message:   fmt.Sprintf("error rate %.1f/min exceeds threshold %.1f/min", snap.ErrorRatePerMinute, errorRateAlertThreshold),
			Value:     snap.ErrorRatePerMinute, Threshold: errorRateAlertThreshold, RaisedAt: now,
		})
	}
	if snap.CPUUsagePercent > cpuAlertThreshold {
		alerts = append(alerts, &types.Alert{
			Kind: types.AlertResourceExhaustion, Severity: types.AlertSeverityWarning,
			Message:   fmt.Sprintf("CPU usage %.1f%% exceeds threshold %.1f%%", snap.CPUUsagePercent, cpuAlertThreshold),
			Value:     snap.CPUUsagePercent, Threshold: cpuAlertThreshold, RaisedAt: now,
		})
	}
	if snap.TotalValidations > 0 && snap.ThroughputPerSecond < throughputAlertThreshold {
		alerts = append(alerts, &types.Alert{
			Kind: types.AlertLowThroughput, Severity: types.AlertSeverityWarning,
			Message:   fmt.Sprintf("throughput %.3f/s is below threshold %.3f/s", snap.ThroughputPerSecond, throughputAlertThreshold),
			Value:     snap.ThroughputPerSecond, Threshold: throughputAlertThreshold, RaisedAt: now,
		})
	}

	return alerts
}

// ExportPrometheus gathers the default registry into the Prometheus text
// exposition format, the same encoder promhttp.Handler serves over HTTP.
func (s *Sink) ExportPrometheus() (string, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return "", err
	}

	var out strings.Builder
	encoder := expfmt.NewEncoder(&out, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}
