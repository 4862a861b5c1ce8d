package types

import "time"

// BenchmarkKind names one of the three fixed micro-benchmarks.
type BenchmarkKind string

const (
	BenchmarkCPU    BenchmarkKind = "cpu_arithmetic"
	BenchmarkMemory BenchmarkKind = "memory_allocation"
	BenchmarkIO     BenchmarkKind = "file_io"
)

// BenchmarkResult summarizes N iterations of one micro-benchmark.
type BenchmarkResult struct {
	Kind           BenchmarkKind
	Iterations     int
	MeanNanos      float64
	MinNanos       float64
	MaxNanos       float64
	StdDevNanos    float64
	ThroughputOpsS float64
	MemoryPerOpBytes int64
}

// IOCounters tracks I/O activity observed during a run.
type IOCounters struct {
	ReadBytes  int64
	WriteBytes int64
	ReadOps    int64
	WriteOps   int64
	IOWait     time.Duration
}

// BottleneckKind names the resource a Bottleneck annotation blames.
type BottleneckKind string

const (
	BottleneckCPUBound     BottleneckKind = "CpuBound"
	BottleneckMemoryBound  BottleneckKind = "MemoryBound"
	BottleneckMemoryLeak   BottleneckKind = "MemoryLeak"
	BottleneckIOBound      BottleneckKind = "IoBound"
)

// Bottleneck is one heuristically-derived performance annotation.
type Bottleneck struct {
	Kind        BottleneckKind
	Severity    Severity
	Description string
}

// CallGraphSummary is a coarse call-depth signal used by the bottleneck and
// recommendation heuristics; it is not a full profiler call graph.
type CallGraphSummary struct {
	TotalFunctions int
	CallDepth      int
	RecursiveCalls int
}

// ProfilingBundle is the "profiling bundle" the design calls for: a small,
// always-populated summary of where time and memory went, independent of
// the optional micro-benchmarks.
type ProfilingBundle struct {
	CPUTimeMs      int64
	UserCPUTimeMs  int64
	SystemCPUTimeMs int64
	HeapAllocMB    float64
	CallGraph      CallGraphSummary
}

// PerformanceMetrics is the Performance Observer's full record for one run.
type PerformanceMetrics struct {
	ExecutionTime   time.Duration
	FinalMemoryMB   float64
	PeakMemoryMB    float64
	CPUUsagePercent float64
	IO              IOCounters
	Benchmarks      []*BenchmarkResult // only populated when benchmarking is enabled
	Profiling       ProfilingBundle
	Bottlenecks     []*Bottleneck
	Recommendations []*Recommendation
}

// ResourceUsage is one point-in-time sample of a running container's
// resource consumption, as returned by the Sandbox Driver's execute().
type ResourceUsage struct {
	CPUUsagePercent float64
	MemoryMB        float64
	PeakMemoryMB    float64
	IO              IOCounters
	SampledAt       time.Time
}
