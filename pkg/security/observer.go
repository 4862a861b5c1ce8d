package security

import (
	"context"

	"github.com/google/uuid"

	"github.com/kwality/kwality/pkg/catalog"
	"github.com/kwality/kwality/pkg/config"
	"github.com/kwality/kwality/pkg/log"
	"github.com/kwality/kwality/pkg/sandbox"
	"github.com/kwality/kwality/pkg/types"
)

// Observer is the Security Observer: it owns the vulnerability/secret
// catalog and the security section of the configuration, and compiles one
// SecurityResult per validated codebase.
type Observer struct {
	catalog *catalog.Catalog
	cfg     *config.Config
}

// New builds an Observer from the given catalog and configuration. A nil
// catalog falls back to the embedded default.
func New(cat *catalog.Catalog, cfg *config.Config) (*Observer, error) {
	if cat == nil {
		var err error
		cat, err = catalog.Default()
		if err != nil {
			return nil, err
		}
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return &Observer{catalog: cat, cfg: cfg}, nil
}

// Analyze scans codebase statically, folds in whatever the sandbox run
// observed, and returns the full SecurityResult: findings, violations,
// anomalies, compliance checks, and the derived score/risk level. result
// may be nil when called before any sandbox execution has completed.
func (o *Observer) Analyze(_ context.Context, codebase *types.Codebase, result *sandbox.ExecutionResult) *types.SecurityResult {
	logger := log.WithComponent("security")
	logger.Debug().Str("codebase_id", codebase.ID).Msg("scanning codebase")

	vulns := scanVulnerabilities(o.catalog, codebase)
	secrets := scanSecrets(o.catalog, codebase)
	violations := detectViolations(&o.cfg.Security, codebase, result)
	anomalies := detectAnomalies(&o.cfg.Performance, result)
	checks := runComplianceChecks(vulns, secrets)

	score := calculateScore(violations, vulns, secrets)
	risk := determineRiskLevel(score, violations)

	logger.Info().
		Float64("score", score).
		Str("risk_level", string(risk)).
		Int("vulnerabilities", len(vulns)).
		Int("secrets", len(secrets)).
		Int("violations", len(violations)).
		Msg("security analysis complete")

	return &types.SecurityResult{
		Vulnerabilities:  vulns,
		Secrets:          secrets,
		Violations:       violations,
		Anomalies:        anomalies,
		ComplianceChecks: checks,
		Score:            score,
		RiskLevel:        risk,
	}
}

// Findings converts a SecurityResult's vulnerabilities and secrets into the
// engine-agnostic Finding records the Result Aggregator consumes.
func (o *Observer) Findings(result *types.SecurityResult) []*types.Finding {
	var findings []*types.Finding

	for _, v := range result.Vulnerabilities {
		findings = append(findings, &types.Finding{
			ID:          uuid.NewString(),
			Kind:        types.FindingSecurityVulnerability,
			Severity:    v.Severity,
			Title:       v.Description,
			Description: v.Remediation,
			FilePath:    v.FilePath,
			Line:        v.Line,
			Confidence:  1,
		})
	}

	for _, s := range result.Secrets {
		findings = append(findings, &types.Finding{
			ID:          uuid.NewString(),
			Kind:        types.FindingSecurityVulnerability,
			Severity:    s.Severity,
			Title:       "hardcoded " + string(s.Kind),
			Description: s.Context,
			FilePath:    s.FilePath,
			Line:        s.Line,
			Confidence:  s.Confidence,
		})
	}

	return findings
}
