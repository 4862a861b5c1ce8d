/*
Package metrics implements the Metrics Sink: process-wide rollup counters,
bounded time-series ring buffers, threshold alerts, and Prometheus
exposition for a kwality validation engine.

# Architecture

	┌──────────────────── METRICS SINK ──────────────────────┐
	│                                                          │
	│  ┌────────────────────────────────────────────┐        │
	│  │              Sink                            │        │
	│  │  rollupMu: total/success/failed, mean dur,   │        │
	│  │            CPU/mem/peak/diskIO/netIO,        │        │
	│  │            container lifecycle counters      │        │
	│  │  errMu:    error rollup, recent-errors queue,│        │
	│  │            1-minute error-rate window        │        │
	│  │  seriesMu: four fixed-capacity ring buffers  │        │
	│  │            (validation, CPU, memory, error)  │        │
	│  │  statusMu: most recent worker/queue snapshot │        │
	│  └──────────────────┬───────────────────────────┘        │
	│                     │                                    │
	│  ┌──────────────────▼───────────────────────────┐        │
	│  │           Prometheus Registry                │        │
	│  │  - DefaultRegisterer, MustRegister at init    │        │
	│  │  - Five required exposition metrics           │        │
	│  │  - Internal phase/campaign duration histograms│        │
	│  └──────────────────┬───────────────────────────┘        │
	│                     │                                    │
	│  ┌──────────────────▼───────────────────────────┐        │
	│  │            HealthChecker                      │        │
	│  │  - per-component healthy/unhealthy state       │        │
	│  │  - readiness gated on sandbox/orchestrator/api │        │
	│  └────────────────────────────────────────────────┘        │
	└──────────────────────────────────────────────────────────┘

# Required exposition metrics

The five metrics a scraper must be able to read regardless of how the
engine is invoked:

  - kwality_validations_total (counter)
  - kwality_validation_duration_seconds (gauge, most recent)
  - kwality_cpu_usage_percent (gauge, most recent sandbox sample)
  - kwality_memory_usage_mb (gauge, most recent sandbox sample)
  - kwality_active_workers (gauge)

ExportPrometheus renders the default gatherer's families, including these
five plus the internal histograms and event counters, in the Prometheus
text exposition format via github.com/prometheus/common/expfmt — the same
encoder promhttp.Handler uses for a scrape endpoint, so a CLI-only
invocation of the engine can still emit a metrics snapshot without
standing up an HTTP server.

# Alerts

Snapshot evaluates three fixed thresholds fresh on every call: error rate
above 10/minute (HighErrorRate, Critical), CPU above 90% (ResourceExhaustion,
Warning), and throughput below 0.1/s once at least one validation has run
(LowThroughput, Warning).

# Concurrency

The Sink's four concerns sit behind four separate locks so that, for
example, recording a sandbox resource sample never blocks a reader of the
error rollup. No method holds a lock longer than it takes to touch its own
fields; Snapshot acquires and releases each lock in turn rather than
holding all four at once.
*/
package metrics
