package security

import (
	"fmt"

	"github.com/kwality/kwality/pkg/config"
	"github.com/kwality/kwality/pkg/sandbox"
	"github.com/kwality/kwality/pkg/types"
)

// anomalyThreshold is the confidence above which a deviation from the
// configured resource thresholds is reported as a behavioral anomaly.
const anomalyThreshold = 0.6

// detectAnomalies compares the observed resource usage against the
// configured performance thresholds, the closest thing this engine has to a
// baseline-behavior profile. A usage figure well past its threshold yields
// higher confidence.
func detectAnomalies(perf *config.PerformanceConfig, result *sandbox.ExecutionResult) []*types.BehavioralAnomaly {
	if result == nil {
		return nil
	}

	var anomalies []*types.BehavioralAnomaly
	t := perf.Thresholds

	if t.MaxCPUUsagePercent > 0 && result.Usage.CPUUsagePercent > t.MaxCPUUsagePercent {
		if score := deviationScore(result.Usage.CPUUsagePercent, t.MaxCPUUsagePercent); score >= anomalyThreshold {
			anomalies = append(anomalies, &types.BehavioralAnomaly{
				Kind:     types.AnomalyResource,
				Observed: fmt.Sprintf("cpu=%.1f%%", result.Usage.CPUUsagePercent),
				Baseline: fmt.Sprintf("cpu<=%.1f%%", t.MaxCPUUsagePercent),
				Score:    score,
			})
		}
	}

	if t.MaxMemoryUsageMB > 0 && result.Usage.PeakMemoryMB > t.MaxMemoryUsageMB {
		if score := deviationScore(result.Usage.PeakMemoryMB, t.MaxMemoryUsageMB); score >= anomalyThreshold {
			anomalies = append(anomalies, &types.BehavioralAnomaly{
				Kind:     types.AnomalyResource,
				Observed: fmt.Sprintf("peak_memory=%.1fMB", result.Usage.PeakMemoryMB),
				Baseline: fmt.Sprintf("peak_memory<=%.1fMB", t.MaxMemoryUsageMB),
				Score:    score,
			})
		}
	}

	return anomalies
}

// deviationScore maps how far observed exceeds baseline into a [0, 1]
// confidence, saturating once observed reaches double the baseline.
func deviationScore(observed, baseline float64) float64 {
	if baseline <= 0 {
		return 0
	}
	ratio := (observed - baseline) / baseline
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}
