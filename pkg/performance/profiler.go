package performance

import (
	"context"

	"github.com/google/uuid"

	"github.com/kwality/kwality/pkg/config"
	"github.com/kwality/kwality/pkg/log"
	"github.com/kwality/kwality/pkg/sandbox"
	"github.com/kwality/kwality/pkg/types"
)

// Profiler is the Performance Observer: it owns the performance section of
// the configuration and turns one sandbox ExecutionResult into a
// PerformanceMetrics record.
type Profiler struct {
	cfg *config.PerformanceConfig
}

// New builds a Profiler from the given configuration section. A nil cfg
// falls back to the package defaults.
func New(cfg *config.PerformanceConfig) *Profiler {
	if cfg == nil {
		d := config.Default().Performance
		cfg = &d
	}
	return &Profiler{cfg: cfg}
}

// Collect derives a PerformanceMetrics record from one sandbox execution:
// wall-clock time and resource usage come straight from the Sandbox
// Driver's own sample (the CPU-fraction formula is computed there, against
// two consecutive container stats samples, exactly once per execution);
// this stage layers on the profiling bundle, optional benchmarks, and the
// heuristic bottleneck/recommendation lists.
func (p *Profiler) Collect(ctx context.Context, result *sandbox.ExecutionResult) *types.PerformanceMetrics {
	logger := log.WithComponent("performance")

	metrics := &types.PerformanceMetrics{
		ExecutionTime:   result.Duration,
		FinalMemoryMB:   result.Usage.MemoryMB,
		PeakMemoryMB:    result.Usage.PeakMemoryMB,
		CPUUsagePercent: result.Usage.CPUUsagePercent,
		IO:              result.Usage.IO,
		Profiling:       buildProfilingBundle(result),
	}

	if p.cfg.BenchmarkIterations > 0 {
		metrics.Benchmarks = p.RunBenchmarks(ctx, p.cfg.BenchmarkIterations)
	}

	metrics.Bottlenecks = identifyBottlenecks(metrics)
	metrics.Recommendations = recommendationsFor(metrics)

	logger.Info().
		Dur("execution_time", metrics.ExecutionTime).
		Float64("cpu_percent", metrics.CPUUsagePercent).
		Float64("peak_memory_mb", metrics.PeakMemoryMB).
		Int("bottlenecks", len(metrics.Bottlenecks)).
		Msg("performance profiling complete")

	return metrics
}

// buildProfilingBundle derives the always-populated profiling summary from
// the sandbox's own resource sample. It is intentionally coarse: real
// per-function hot-path attribution would require an in-container profiler
// agent, which is out of scope for a single short-lived validation run.
func buildProfilingBundle(result *sandbox.ExecutionResult) types.ProfilingBundle {
	totalMs := result.Duration.Milliseconds()
	cpuMs := int64(float64(totalMs) * result.Usage.CPUUsagePercent / 100)

	return types.ProfilingBundle{
		CPUTimeMs:       cpuMs,
		UserCPUTimeMs:   int64(float64(cpuMs) * 0.8),
		SystemCPUTimeMs: int64(float64(cpuMs) * 0.2),
		HeapAllocMB:     result.Usage.PeakMemoryMB,
		CallGraph: types.CallGraphSummary{
			TotalFunctions: 0,
			CallDepth:      0,
			RecursiveCalls: 0,
		},
	}
}

// Findings converts the bottleneck list into the engine-agnostic Finding
// records the Result Aggregator consumes. Leak bottlenecks surface as
// MemoryLeak findings; every other bottleneck as a PerformanceIssue.
func (p *Profiler) Findings(metrics *types.PerformanceMetrics) []*types.Finding {
	var findings []*types.Finding

	for _, b := range metrics.Bottlenecks {
		kind := types.FindingPerformanceIssue
		title := bottleneckTitle(b.Kind)
		if b.Kind == types.BottleneckMemoryLeak {
			kind = types.FindingMemoryLeak
		}
		findings = append(findings, &types.Finding{
			ID:          uuid.NewString(),
			Kind:        kind,
			Severity:    b.Severity,
			Title:       title,
			Description: b.Description,
			Confidence:  1,
		})
	}

	return findings
}

func bottleneckTitle(kind types.BottleneckKind) string {
	switch kind {
	case types.BottleneckCPUBound:
		return "High CPU Usage"
	case types.BottleneckMemoryBound:
		return "High Memory Usage"
	case types.BottleneckMemoryLeak:
		return "Suspected Memory Leak"
	case types.BottleneckIOBound:
		return "High I/O Wait"
	default:
		return "Performance Issue"
	}
}
