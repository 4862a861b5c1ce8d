package performance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwality/kwality/pkg/config"
	"github.com/kwality/kwality/pkg/sandbox"
	"github.com/kwality/kwality/pkg/types"
)

func TestCollectDerivesMetricsFromExecutionResult(t *testing.T) {
	cfg := config.Default().Performance
	cfg.BenchmarkIterations = 0
	p := New(&cfg)

	result := &sandbox.ExecutionResult{
		Duration: 250 * time.Millisecond,
		Usage: types.ResourceUsage{
			CPUUsagePercent: 42,
			MemoryMB:        64,
			PeakMemoryMB:    96,
		},
	}

	metrics := p.Collect(context.Background(), result)
	require.NotNil(t, metrics)
	assert.Equal(t, result.Duration, metrics.ExecutionTime)
	assert.Equal(t, 42.0, metrics.CPUUsagePercent)
	assert.Equal(t, 96.0, metrics.PeakMemoryMB)
	assert.Empty(t, metrics.Benchmarks)
}

func TestIdentifyBottlenecksMemoryHog(t *testing.T) {
	m := &types.PerformanceMetrics{
		CPUUsagePercent: 20,
		PeakMemoryMB:    600,
		FinalMemoryMB:   598,
	}

	bottlenecks := identifyBottlenecks(m)

	var kinds []types.BottleneckKind
	for _, b := range bottlenecks {
		kinds = append(kinds, b.Kind)
	}
	assert.Contains(t, kinds, types.BottleneckMemoryBound)
	assert.Contains(t, kinds, types.BottleneckMemoryLeak)
}

func TestIdentifyBottlenecksCPUBound(t *testing.T) {
	m := &types.PerformanceMetrics{CPUUsagePercent: 95}
	bottlenecks := identifyBottlenecks(m)
	require.Len(t, bottlenecks, 1)
	assert.Equal(t, types.BottleneckCPUBound, bottlenecks[0].Kind)
	assert.Equal(t, types.SeverityHigh, bottlenecks[0].Severity)
}

func TestIdentifyBottlenecksIOBound(t *testing.T) {
	m := &types.PerformanceMetrics{IO: types.IOCounters{IOWait: 150 * time.Millisecond}}
	bottlenecks := identifyBottlenecks(m)
	require.Len(t, bottlenecks, 1)
	assert.Equal(t, types.BottleneckIOBound, bottlenecks[0].Kind)
}

func TestIdentifyBottlenecksNoneWhenHealthy(t *testing.T) {
	m := &types.PerformanceMetrics{CPUUsagePercent: 10, PeakMemoryMB: 50, FinalMemoryMB: 10}
	assert.Empty(t, identifyBottlenecks(m))
}

func TestRecommendationsForMemoryHog(t *testing.T) {
	m := &types.PerformanceMetrics{PeakMemoryMB: 300}
	recs := recommendationsFor(m)
	require.Len(t, recs, 1)
	assert.Equal(t, "Reduce Memory Allocation", recs[0].Title)
}

func TestRunBenchmarksRespectsConfig(t *testing.T) {
	cfg := config.Default().Performance
	cfg.BenchmarkIterations = 3
	cfg.EnableCPUProfiling = true
	cfg.EnableMemoryProfiling = true
	cfg.EnableIOProfiling = false
	p := New(&cfg)

	results := p.RunBenchmarks(context.Background(), cfg.BenchmarkIterations)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, 3, r.Iterations)
		assert.GreaterOrEqual(t, r.MeanNanos, 0.0)
	}
}

func TestFindingsMapsMemoryLeakKind(t *testing.T) {
	p := New(nil)
	metrics := &types.PerformanceMetrics{
		Bottlenecks: []*types.Bottleneck{
			{Kind: types.BottleneckMemoryLeak, Severity: types.SeverityCritical, Description: "leak"},
			{Kind: types.BottleneckCPUBound, Severity: types.SeverityHigh, Description: "cpu"},
		},
	}

	findings := p.Findings(metrics)
	require.Len(t, findings, 2)
	assert.Equal(t, types.FindingMemoryLeak, findings[0].Kind)
	assert.Equal(t, types.FindingPerformanceIssue, findings[1].Kind)
}
