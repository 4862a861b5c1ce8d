package security

import (
	"testing"

	"github.com/kwality/kwality/pkg/types"
)

func TestCalculateScore_NoFindings(t *testing.T) {
	score := calculateScore(nil, nil, nil)
	if score != 100 {
		t.Errorf("expected a clean score of 100, got %v", score)
	}
}

func TestCalculateScore_Deductions(t *testing.T) {
	violations := []*types.SecurityViolation{{Risk: types.RiskTagCritical}}
	vulns := []*types.Vulnerability{{Severity: types.SeverityHigh}}
	secrets := []*types.SecretFinding{{Severity: types.SeverityMedium, Confidence: 1.0}}

	got := calculateScore(violations, vulns, secrets)
	want := 100.0 - 25 - 20 - 6
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCalculateScore_ClampsToZero(t *testing.T) {
	var violations []*types.SecurityViolation
	for i := 0; i < 10; i++ {
		violations = append(violations, &types.SecurityViolation{Risk: types.RiskTagCritical})
	}

	got := calculateScore(violations, nil, nil)
	if got != 0 {
		t.Errorf("expected score clamped to 0, got %v", got)
	}
}

func TestDetermineRiskLevel(t *testing.T) {
	tests := []struct {
		name       string
		score      float64
		violations []*types.SecurityViolation
		want       types.RiskLevel
	}{
		{"minimal", 95, nil, types.RiskLevelMinimal},
		{"low", 85, nil, types.RiskLevelLow},
		{"medium", 65, nil, types.RiskLevelMedium},
		{"high", 45, nil, types.RiskLevelHigh},
		{"critical by score", 10, nil, types.RiskLevelCritical},
		{"critical by violation", 95, []*types.SecurityViolation{{Risk: types.RiskTagCritical}}, types.RiskLevelCritical},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := determineRiskLevel(tc.score, tc.violations)
			if got != tc.want {
				t.Errorf("determineRiskLevel(%v, ...) = %v, want %v", tc.score, got, tc.want)
			}
		})
	}
}
