package aggregator

import (
	"testing"

	"github.com/kwality/kwality/pkg/types"
)

func TestRecommendations_CleanRunIsEmpty(t *testing.T) {
	result := &types.ValidationResult{
		Security:    &types.SecurityResult{Score: 100},
		Performance: &types.PerformanceMetrics{CPUUsagePercent: 10, FinalMemoryMB: 10},
	}

	got := Recommendations(result)
	if len(got) != 0 {
		t.Errorf("expected no recommendations, got %d", len(got))
	}
}

func TestRecommendations_LowSecurityScoreTriggersCritical(t *testing.T) {
	result := &types.ValidationResult{Security: &types.SecurityResult{Score: 40}}

	got := Recommendations(result)
	if len(got) != 1 || got[0].Title != "Improve Security Posture" || got[0].Priority != types.PriorityCritical {
		t.Errorf("expected one critical security recommendation, got %+v", got)
	}
}

func TestRecommendations_HighCPUTriggersPerformanceRec(t *testing.T) {
	result := &types.ValidationResult{
		Security:    &types.SecurityResult{Score: 100},
		Performance: &types.PerformanceMetrics{CPUUsagePercent: 90},
	}

	got := Recommendations(result)
	if len(got) != 1 || got[0].Title != "Optimize Performance" {
		t.Errorf("expected one performance recommendation, got %+v", got)
	}
}

func TestRecommendations_HighMemoryTriggersMemoryRec(t *testing.T) {
	result := &types.ValidationResult{
		Security:    &types.SecurityResult{Score: 100},
		Performance: &types.PerformanceMetrics{CPUUsagePercent: 10, FinalMemoryMB: 150},
	}

	got := Recommendations(result)
	if len(got) != 1 || got[0].Title != "Reduce Memory Usage" {
		t.Errorf("expected one memory recommendation, got %+v", got)
	}
}

func TestRecommendations_AllThreeCanFireTogether(t *testing.T) {
	result := &types.ValidationResult{
		Security:    &types.SecurityResult{Score: 10},
		Performance: &types.PerformanceMetrics{CPUUsagePercent: 95, FinalMemoryMB: 500},
	}

	got := Recommendations(result)
	if len(got) != 3 {
		t.Errorf("expected all three recommendations, got %d: %+v", len(got), got)
	}
}
