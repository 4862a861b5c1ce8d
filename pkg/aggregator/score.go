package aggregator

import "github.com/kwality/kwality/pkg/types"

const (
	securityWeight      = 0.30
	performanceWeight   = 0.20
	functionalityWeight = 0.25
	qualityWeight       = 0.15
	reliabilityWeight   = 0.10
)

// WeightedScore combines the five component scores into the overall
// [0, 100] verdict, clamping only at this final step.
func WeightedScore(result *types.ValidationResult) float64 {
	security := securityScore(result.Security)
	performance := performanceScore(result.Performance)
	functionality := functionalityScore(result.Findings)
	quality := qualityScore(result.Findings)
	reliability := reliabilityScore(result.Findings)

	score := security*securityWeight +
		performance*performanceWeight +
		functionality*functionalityWeight +
		quality*qualityWeight +
		reliability*reliabilityWeight

	return clamp(score, 0, 100)
}

func securityScore(result *types.SecurityResult) float64 {
	if result == nil {
		return 100.0
	}
	return result.Score
}

// performanceScore is the mean of a CPU-headroom score and a memory-headroom
// score; memory is scaled by 10 MB per point, matching the design's fixed
// conversion rather than a percentage of any configured ceiling.
func performanceScore(metrics *types.PerformanceMetrics) float64 {
	if metrics == nil {
		return 100.0
	}
	cpuScore := maxFloat(0, 100-metrics.CPUUsagePercent)
	memScore := maxFloat(0, 100-metrics.FinalMemoryMB/10)
	return (cpuScore + memScore) / 2.0
}

func functionalityScore(findings []*types.Finding) float64 {
	return maxFloat(0, 100-20*float64(countFindings(findings, types.FindingRuntimeError)))
}

// qualityScore penalizes total finding volume regardless of kind, a
// deliberately coarse proxy for code quality.
func qualityScore(findings []*types.Finding) float64 {
	return maxFloat(0, 100-5*float64(len(findings)))
}

func reliabilityScore(findings []*types.Finding) float64 {
	return maxFloat(0, 100-25*float64(countFindings(findings, types.FindingCrashProne)))
}

func countFindings(findings []*types.Finding, kind types.FindingKind) int {
	n := 0
	for _, f := range findings {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
