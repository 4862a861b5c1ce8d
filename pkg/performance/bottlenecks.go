package performance

import (
	"fmt"

	"github.com/kwality/kwality/pkg/types"
)

const (
	cpuBoundThreshold    = 90.0
	memoryBoundThresholdMB = 512.0
	ioWaitBottleneckMs   = 100

	cpuRecommendThreshold    = 70.0
	memoryRecommendThresholdMB = 256.0
	ioReadsRecommendThreshold  = 50
	callDepthRecommendThreshold = 10

	// leakRetentionRatio: a run is flagged as a suspected leak when peak and
	// final memory stay within this fraction of each other (memory was
	// never given back) and peak cleared the bound-threshold.
	leakRetentionRatio = 0.95
)

// identifyBottlenecks applies the design's fixed heuristic thresholds,
// each emitting at most one Bottleneck.
func identifyBottlenecks(m *types.PerformanceMetrics) []*types.Bottleneck {
	var bottlenecks []*types.Bottleneck

	if m.CPUUsagePercent > cpuBoundThreshold {
		bottlenecks = append(bottlenecks, &types.Bottleneck{
			Kind:        types.BottleneckCPUBound,
			Severity:    types.SeverityHigh,
			Description: fmt.Sprintf("CPU utilization %.1f%% exceeds the %.0f%% bound threshold", m.CPUUsagePercent, cpuBoundThreshold),
		})
	}

	if m.PeakMemoryMB > memoryBoundThresholdMB {
		bottlenecks = append(bottlenecks, &types.Bottleneck{
			Kind:        types.BottleneckMemoryBound,
			Severity:    types.SeverityMedium,
			Description: fmt.Sprintf("peak memory %.1f MB exceeds the %.0f MB bound threshold", m.PeakMemoryMB, memoryBoundThresholdMB),
		})
	}

	if suspectedLeak(m) {
		bottlenecks = append(bottlenecks, &types.Bottleneck{
			Kind:        types.BottleneckMemoryLeak,
			Severity:    types.SeverityCritical,
			Description: fmt.Sprintf("memory held at %.1f MB through process exit without falling back toward baseline", m.FinalMemoryMB),
		})
	}

	if m.IO.IOWait.Milliseconds() > ioWaitBottleneckMs {
		bottlenecks = append(bottlenecks, &types.Bottleneck{
			Kind:        types.BottleneckIOBound,
			Severity:    types.SeverityMedium,
			Description: fmt.Sprintf("I/O wait %dms exceeds the %dms bound threshold", m.IO.IOWait.Milliseconds(), ioWaitBottleneckMs),
		})
	}

	return bottlenecks
}

func suspectedLeak(m *types.PerformanceMetrics) bool {
	if m.PeakMemoryMB <= memoryBoundThresholdMB || m.PeakMemoryMB <= 0 {
		return false
	}
	return m.FinalMemoryMB >= m.PeakMemoryMB*leakRetentionRatio
}

// recommendationsFor derives the Performance Observer's own recommendation
// list from lower-trigger versions of the bottleneck thresholds.
func recommendationsFor(m *types.PerformanceMetrics) []*types.Recommendation {
	var recs []*types.Recommendation

	if m.CPUUsagePercent > cpuRecommendThreshold {
		recs = append(recs, &types.Recommendation{
			Title:       "Optimize CPU-Intensive Code",
			Description: fmt.Sprintf("CPU utilization reached %.1f%%; profile hot paths or parallelize work", m.CPUUsagePercent),
			Priority:    types.PriorityHigh,
			Action:      "profile and optimize the dominant code path",
			Effort:      types.EffortMedium,
			Impact:      types.ImpactHigh,
		})
	}

	if m.PeakMemoryMB > memoryRecommendThresholdMB {
		recs = append(recs, &types.Recommendation{
			Title:       "Reduce Memory Allocation",
			Description: fmt.Sprintf("peak memory reached %.1f MB; consider pooling or streaming large allocations", m.PeakMemoryMB),
			Priority:    types.PriorityMedium,
			Action:      "reduce peak allocation size or reuse buffers",
			Effort:      types.EffortMedium,
			Impact:      types.ImpactMedium,
		})
	}

	if m.IO.ReadOps > ioReadsRecommendThreshold {
		recs = append(recs, &types.Recommendation{
			Title:       "Cache Repeated Reads",
			Description: fmt.Sprintf("%d file read operations observed; consider caching or batching", m.IO.ReadOps),
			Priority:    types.PriorityMedium,
			Action:      "add a read cache or batch the I/O",
			Effort:      types.EffortLow,
			Impact:      types.ImpactMedium,
		})
	}

	if m.Profiling.CallGraph.CallDepth > callDepthRecommendThreshold {
		recs = append(recs, &types.Recommendation{
			Title:       "Consider Parallelizing Deep Call Chains",
			Description: fmt.Sprintf("call depth of %d observed; some of this work may parallelize", m.Profiling.CallGraph.CallDepth),
			Priority:    types.PriorityLow,
			Action:      "evaluate independent branches for concurrent execution",
			Effort:      types.EffortHigh,
			Impact:      types.ImpactMedium,
		})
	}

	return recs
}
