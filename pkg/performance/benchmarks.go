package performance

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kwality/kwality/pkg/types"
)

// RunBenchmarks runs the three fixed micro-benchmarks (CPU-bound
// arithmetic, memory allocation, file-I/O round-trip) for iterations tries
// each, on the host process rather than inside the validated container:
// these measure the validator's own baseline, the same role
// PerformanceProfiler::run_benchmarks plays in the original engine.
func (p *Profiler) RunBenchmarks(ctx context.Context, iterations int) []*types.BenchmarkResult {
	var results []*types.BenchmarkResult

	if p.cfg.EnableCPUProfiling {
		results = append(results, runBenchmark(ctx, types.BenchmarkCPU, iterations, cpuArithmeticOp))
	}
	if p.cfg.EnableMemoryProfiling {
		results = append(results, runBenchmark(ctx, types.BenchmarkMemory, iterations, memoryAllocationOp))
	}
	if p.cfg.EnableIOProfiling {
		results = append(results, runBenchmark(ctx, types.BenchmarkIO, iterations, fileIOOp))
	}

	return results
}

func runBenchmark(ctx context.Context, kind types.BenchmarkKind, iterations int, op func()) *types.BenchmarkResult {
	durations := make([]float64, 0, iterations)

	for i := 0; i < iterations; i++ {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		op()
		durations = append(durations, float64(time.Since(start).Nanoseconds()))
	}

	return summarize(kind, durations)
}

func summarize(kind types.BenchmarkKind, durations []float64) *types.BenchmarkResult {
	n := len(durations)
	if n == 0 {
		return &types.BenchmarkResult{Kind: kind}
	}

	var sum, min, max float64
	min = durations[0]
	for _, d := range durations {
		sum += d
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	mean := sum / float64(n)

	var variance float64
	for _, d := range durations {
		diff := d - mean
		variance += diff * diff
	}
	variance /= float64(n)
	stddev := math.Sqrt(variance)

	var throughput float64
	if meanSeconds := mean / 1e9; meanSeconds > 0 {
		throughput = 1.0 / meanSeconds
	}

	return &types.BenchmarkResult{
		Kind:             kind,
		Iterations:       n,
		MeanNanos:        mean,
		MinNanos:         min,
		MaxNanos:         max,
		StdDevNanos:      stddev,
		ThroughputOpsS:   throughput,
		MemoryPerOpBytes: memoryPerOp(kind),
	}
}

func memoryPerOp(kind types.BenchmarkKind) int64 {
	if kind == types.BenchmarkMemory {
		return 1024 * 1024
	}
	return 0
}

// cpuArithmeticOp is a CPU-bound arithmetic workload: summing squares,
// matching the original profiler's cpu_intensive benchmark.
func cpuArithmeticOp() {
	var result uint64
	for i := uint64(0); i < 100_000; i++ {
		result += i * i
	}
	_ = result
}

// memoryAllocationOp allocates and immediately drops a 1MB buffer.
func memoryAllocationOp() {
	buf := make([]byte, 1024*1024)
	_ = buf
}

// fileIOOp writes, reads back, then removes a small temp file.
func fileIOOp() {
	path := filepath.Join(os.TempDir(), "kwality-bench-"+uuid.NewString())
	_ = os.WriteFile(path, []byte("benchmark data"), 0o600)
	_, _ = os.ReadFile(path)
	_ = os.Remove(path)
}
