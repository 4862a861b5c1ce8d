package security

import "github.com/kwality/kwality/pkg/types"

// calculateScore applies the fixed point-deduction schedule: start at 100,
// subtract per violation by risk tag, per vulnerability by severity, per
// secret by severity scaled by confidence, then clamp to [0, 100].
func calculateScore(violations []*types.SecurityViolation, vulns []*types.Vulnerability, secrets []*types.SecretFinding) float64 {
	score := 100.0

	for _, v := range violations {
		score -= violationDeduction(v.Risk)
	}
	for _, v := range vulns {
		score -= vulnerabilityDeduction(v.Severity)
	}
	for _, s := range secrets {
		score -= secretDeduction(s.Severity) * s.Confidence
	}

	return clamp(score, 0, 100)
}

func violationDeduction(risk types.RiskTag) float64 {
	switch risk {
	case types.RiskTagCritical:
		return 25
	case types.RiskTagHigh:
		return 15
	case types.RiskTagMedium:
		return 8
	case types.RiskTagLow:
		return 3
	default:
		return 1
	}
}

func vulnerabilityDeduction(sev types.Severity) float64 {
	switch sev {
	case types.SeverityCritical:
		return 30
	case types.SeverityHigh:
		return 20
	case types.SeverityMedium:
		return 10
	default:
		return 5
	}
}

func secretDeduction(sev types.Severity) float64 {
	switch sev {
	case types.SeverityCritical:
		return 20
	case types.SeverityHigh:
		return 12
	case types.SeverityMedium:
		return 6
	default:
		return 2
	}
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

// determineRiskLevel derives the categorical risk level from the clamped
// score and whether any Critical violation occurred.
func determineRiskLevel(score float64, violations []*types.SecurityViolation) types.RiskLevel {
	hasCritical := false
	for _, v := range violations {
		if v.Risk == types.RiskTagCritical {
			hasCritical = true
			break
		}
	}

	switch {
	case hasCritical || score < 30:
		return types.RiskLevelCritical
	case score < 50:
		return types.RiskLevelHigh
	case score < 70:
		return types.RiskLevelMedium
	case score < 90:
		return types.RiskLevelLow
	default:
		return types.RiskLevelMinimal
	}
}
