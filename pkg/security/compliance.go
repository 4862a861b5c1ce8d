package security

import "github.com/kwality/kwality/pkg/types"

// runComplianceChecks evaluates a fixed checklist against the findings
// already collected for this run.
func runComplianceChecks(vulns []*types.Vulnerability, secrets []*types.SecretFinding) []*types.ComplianceCheck {
	injectionFree := true
	for _, v := range vulns {
		if v.Kind == "sql_injection" || v.Kind == "command_injection" {
			injectionFree = false
			break
		}
	}

	return []*types.ComplianceCheck{
		{
			Name:        "OWASP Top 10: Injection Prevention",
			Passed:      injectionFree,
			Description: "source free of SQL/command injection patterns",
		},
		{
			Name:        "CIS Controls: Secure Configuration",
			Passed:      len(secrets) == 0,
			Description: "no hardcoded credentials present in source",
		},
	}
}
