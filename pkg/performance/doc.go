// Package performance implements the Performance Observer: three
// micro-benchmarks, the profiling bundle, and the heuristic
// bottleneck/recommendation thresholds that turn a sandbox execution result
// into a PerformanceMetrics record. The CPU-fraction usage figure is taken
// as computed by the Sandbox Driver.
package performance
