package aggregator

import "github.com/kwality/kwality/pkg/types"

// Aggregate fills result.OverallScore and result.Recommendations from the
// component results already assembled onto it by earlier pipeline phases.
// It mutates result in place and returns it, mirroring the orchestrator's
// pattern of threading one result through each phase.
func Aggregate(result *types.ValidationResult) *types.ValidationResult {
	result.OverallScore = WeightedScore(result)
	result.Recommendations = Recommendations(result)
	return result
}
