package security

import (
	"strings"

	"github.com/kwality/kwality/pkg/catalog"
	"github.com/kwality/kwality/pkg/types"
)

// scanVulnerabilities matches every vulnerability rule against every file's
// content, emitting one Vulnerability per matching line.
func scanVulnerabilities(cat *catalog.Catalog, codebase *types.Codebase) []*types.Vulnerability {
	var found []*types.Vulnerability
	for _, f := range codebase.Files {
		lines := strings.Split(f.Content, "\n")
		for _, rule := range cat.Vulnerabilities {
			for i, line := range lines {
				if !rule.Regexp().MatchString(line) {
					continue
				}
				found = append(found, &types.Vulnerability{
					Kind:        rule.Kind,
					FilePath:    f.Path,
					Line:        i + 1,
					Severity:    rule.Severity,
					Description: rule.Description,
					Remediation: rule.Remediation,
					CVEID:       rule.CVEID,
					CVSSScore:   rule.CVSSScore,
				})
			}
		}
	}
	return found
}

// scanSecrets matches every secret rule against every file's content,
// emitting one SecretFinding per matching line with a +/-3 line context
// window around the match.
func scanSecrets(cat *catalog.Catalog, codebase *types.Codebase) []*types.SecretFinding {
	var found []*types.SecretFinding
	for _, f := range codebase.Files {
		lines := strings.Split(f.Content, "\n")
		for _, rule := range cat.Secrets {
			for i, line := range lines {
				match := rule.Regexp().FindString(line)
				if match == "" {
					continue
				}
				found = append(found, &types.SecretFinding{
					Kind:       rule.Kind,
					FilePath:   f.Path,
					Line:       i + 1,
					Match:      match,
					Context:    contextWindow(lines, i, 3),
					Severity:   rule.Severity,
					Confidence: rule.Confidence,
				})
			}
		}
	}
	return found
}

// contextWindow joins the lines within radius of index i (inclusive),
// clamped to the slice bounds.
func contextWindow(lines []string, i, radius int) string {
	start := i - radius
	if start < 0 {
		start = 0
	}
	end := i + radius + 1
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}
