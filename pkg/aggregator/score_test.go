package aggregator

import (
	"testing"

	"github.com/kwality/kwality/pkg/types"
)

func TestWeightedScore_CleanRunIsHundred(t *testing.T) {
	result := &types.ValidationResult{
		Security:    &types.SecurityResult{Score: 100},
		Performance: &types.PerformanceMetrics{CPUUsagePercent: 0, FinalMemoryMB: 0},
	}

	got := WeightedScore(result)
	if got != 100 {
		t.Errorf("expected a clean run to score 100, got %v", got)
	}
}

func TestWeightedScore_NilComponentsDefaultToPerfectSubscores(t *testing.T) {
	result := &types.ValidationResult{}

	got := WeightedScore(result)
	if got != 100 {
		t.Errorf("expected nil security/performance to score 100, got %v", got)
	}
}

func TestWeightedScore_CombinesAllFiveComponents(t *testing.T) {
	result := &types.ValidationResult{
		Security:    &types.SecurityResult{Score: 50},
		Performance: &types.PerformanceMetrics{CPUUsagePercent: 50, FinalMemoryMB: 200},
		Findings: []*types.Finding{
			{Kind: types.FindingRuntimeError},
			{Kind: types.FindingCrashProne},
		},
	}

	// security: 50*0.30 = 15
	// performance: cpu 50, mem 100-20=80 -> mean 65 *0.20 = 13
	// functionality: 100-20=80 *0.25 = 20
	// quality: 100-5*2=90 *0.15 = 13.5
	// reliability: 100-25=75 *0.10 = 7.5
	want := 15.0 + 13.0 + 20.0 + 13.5 + 7.5
	got := WeightedScore(result)
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWeightedScore_ClampsToZero(t *testing.T) {
	var findings []*types.Finding
	for i := 0; i < 50; i++ {
		findings = append(findings,
			&types.Finding{Kind: types.FindingCrashProne},
			&types.Finding{Kind: types.FindingRuntimeError},
		)
	}
	result := &types.ValidationResult{
		Security:    &types.SecurityResult{Score: 0},
		Performance: &types.PerformanceMetrics{CPUUsagePercent: 100, FinalMemoryMB: 1000},
		Findings:    findings,
	}

	got := WeightedScore(result)
	if got != 0 {
		t.Errorf("expected score clamped to 0, got %v", got)
	}
}

func TestPerformanceScore_AveragesCPUAndMemoryHeadroom(t *testing.T) {
	got := performanceScore(&types.PerformanceMetrics{CPUUsagePercent: 20, FinalMemoryMB: 50})
	want := (80.0 + 95.0) / 2.0
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
