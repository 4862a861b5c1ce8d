package types

import "time"

// ContainerEventKind names one of the container lifecycle events the
// Metrics Sink counts.
type ContainerEventKind string

const (
	ContainerEventCreated           ContainerEventKind = "Created"
	ContainerEventDestroyed         ContainerEventKind = "Destroyed"
	ContainerEventFailed            ContainerEventKind = "Failed"
	ContainerEventResourceViolation ContainerEventKind = "ResourceViolation"
)

// ContainerEvent is one lifecycle transition reported to the Metrics Sink.
type ContainerEvent struct {
	Kind     ContainerEventKind
	Lifetime time.Duration // only meaningful for ContainerEventDestroyed
}

// ErrorEvent is one bounded-history error record inside a MetricsSnapshot.
type ErrorEvent struct {
	Kind      string
	Message   string
	Severity  Severity
	Timestamp time.Time
}

// AlertKind names a Metrics Sink threshold-crossing alert.
type AlertKind string

const (
	AlertHighErrorRate   AlertKind = "HighErrorRate"
	AlertResourceExhaustion AlertKind = "ResourceExhaustion"
	AlertLowThroughput   AlertKind = "LowThroughput"
)

// AlertSeverity classifies how urgently an Alert needs attention.
type AlertSeverity string

const (
	AlertSeverityCritical AlertSeverity = "Critical"
	AlertSeverityWarning  AlertSeverity = "Warning"
)

// Alert is one threshold-crossing notification from the Metrics Sink.
type Alert struct {
	Kind      AlertKind
	Severity  AlertSeverity
	Message   string
	Value     float64
	Threshold float64
	RaisedAt  time.Time
}

// RingPoint is one (timestamp, value) sample in a fixed-capacity ring buffer.
type RingPoint struct {
	Timestamp time.Time
	Value     float64
}

// SystemStatus is the most recently reported worker/queue/health snapshot.
type SystemStatus struct {
	ActiveWorkers int
	QueueDepth    int
	Healthy       bool
	UpdatedAt     time.Time
}

// MetricsSnapshot is a point-in-time read of the Metrics Sink's aggregate
// state. Ring buffers are capped at a fixed capacity (default 1000); the
// oldest point is dropped on overflow.
type MetricsSnapshot struct {
	TotalValidations      int64
	SuccessfulValidations int64
	FailedValidations     int64
	MeanDurationSeconds   float64
	ThroughputPerSecond   float64

	CPUUsagePercent float64
	MemoryMB        float64
	PeakMemoryMB    float64
	DiskIOBytes     int64
	NetworkIOBytes  int64

	ContainersCreated           int64
	ContainersDestroyed         int64
	ContainersFailed            int64
	ContainerResourceViolations int64

	ErrorsTotal        int64
	ErrorRatePerMinute float64
	ErrorsByKind       map[string]int64
	RecentErrors       []*ErrorEvent

	ValidationTimeSeries []*RingPoint
	CPUTimeSeries        []*RingPoint
	MemoryTimeSeries     []*RingPoint
	ErrorRateTimeSeries  []*RingPoint

	System SystemStatus
	Alerts []*Alert
}
