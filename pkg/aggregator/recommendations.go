package aggregator

import "github.com/kwality/kwality/pkg/types"

const (
	securityScoreThreshold = 70.0
	cpuRecommendThreshold  = 80.0
	memoryRecommendMB      = 100.0
)

// Recommendations derives the fixed set of threshold-triggered
// recommendations from one assembled result. Order matches the fixed
// threshold list: security, then CPU, then memory.
func Recommendations(result *types.ValidationResult) []*types.Recommendation {
	var recs []*types.Recommendation

	if result.Security != nil && result.Security.Score < securityScoreThreshold {
		recs = append(recs, &types.Recommendation{
			Title:       "Improve Security Posture",
			Description: "Address security vulnerabilities found during scanning",
			Priority:    types.PriorityCritical,
			Action:      "Review and fix security findings",
			Effort:      types.EffortHigh,
			Impact:      types.ImpactHigh,
		})
	}

	if result.Performance != nil && result.Performance.CPUUsagePercent > cpuRecommendThreshold {
		recs = append(recs, &types.Recommendation{
			Title:       "Optimize Performance",
			Description: "High CPU usage detected during execution",
			Priority:    types.PriorityMedium,
			Action:      "Profile and optimize CPU-intensive operations",
			Effort:      types.EffortMedium,
			Impact:      types.ImpactHigh,
		})
	}

	if result.Performance != nil && result.Performance.FinalMemoryMB > memoryRecommendMB {
		recs = append(recs, &types.Recommendation{
			Title:       "Reduce Memory Usage",
			Description: "High memory usage detected during execution",
			Priority:    types.PriorityMedium,
			Action:      "Profile allocations and reduce peak memory footprint",
			Effort:      types.EffortMedium,
			Impact:      types.ImpactMedium,
		})
	}

	return recs
}
