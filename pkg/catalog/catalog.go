// Package catalog holds the vulnerability and secret regex catalogues the
// Security Observer's static scanner matches against. Per the design notes,
// both catalogues are data, not code: they're compiled from JSON documents
// embedded as defaults, and Load lets an operator point at a replacement
// file without recompiling anything.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/kwality/kwality/pkg/types"
)

//go:embed data/vulnerabilities.json data/secrets.json
var defaultsFS embed.FS

// VulnerabilityRule is one named vulnerability-pattern catalogue entry.
type VulnerabilityRule struct {
	Name        string             `json:"name"`
	Kind        types.VulnerabilityKind `json:"kind"`
	Pattern     string             `json:"pattern"`
	Severity    types.Severity     `json:"severity"`
	Description string             `json:"description"`
	Remediation string             `json:"remediation"`
	CVEID       string             `json:"cve_id,omitempty"`
	CVSSScore   float64            `json:"cvss_score,omitempty"`

	compiled *regexp.Regexp
}

// SecretRule is one named secret-pattern catalogue entry.
type SecretRule struct {
	Name       string          `json:"name"`
	Kind       types.SecretKind `json:"kind"`
	Pattern    string          `json:"pattern"`
	Confidence float64         `json:"confidence"`
	Severity   types.Severity  `json:"severity"`

	compiled *regexp.Regexp
}

// Catalog is a compiled pair of vulnerability and secret rule sets.
type Catalog struct {
	Vulnerabilities []*VulnerabilityRule
	Secrets         []*SecretRule
}

// Regexp returns the compiled pattern for r.
func (r *VulnerabilityRule) Regexp() *regexp.Regexp { return r.compiled }

// Regexp returns the compiled pattern for r.
func (r *SecretRule) Regexp() *regexp.Regexp { return r.compiled }

// Default returns the catalogue embedded in the binary.
func Default() (*Catalog, error) {
	vulnData, err := defaultsFS.ReadFile("data/vulnerabilities.json")
	if err != nil {
		return nil, fmt.Errorf("catalog: read embedded vulnerabilities: %w", err)
	}
	secretData, err := defaultsFS.ReadFile("data/secrets.json")
	if err != nil {
		return nil, fmt.Errorf("catalog: read embedded secrets: %w", err)
	}
	return load(vulnData, secretData)
}

// LoadFiles compiles a catalogue from external JSON files, letting an
// operator extend detection without a rebuild.
func LoadFiles(vulnPath, secretPath string) (*Catalog, error) {
	vulnData, err := readFileOrEmbedded(vulnPath, "data/vulnerabilities.json")
	if err != nil {
		return nil, err
	}
	secretData, err := readFileOrEmbedded(secretPath, "data/secrets.json")
	if err != nil {
		return nil, err
	}
	return load(vulnData, secretData)
}

func readFileOrEmbedded(path, embeddedName string) ([]byte, error) {
	if path == "" {
		return defaultsFS.ReadFile(embeddedName)
	}
	return os.ReadFile(path)
}

func load(vulnData, secretData []byte) (*Catalog, error) {
	var vulnRules []*VulnerabilityRule
	if err := json.Unmarshal(vulnData, &vulnRules); err != nil {
		return nil, fmt.Errorf("catalog: parse vulnerability rules: %w", err)
	}
	for _, r := range vulnRules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("catalog: vulnerability rule %q: %w", r.Name, err)
		}
		r.compiled = re
	}

	var secretRules []*SecretRule
	if err := json.Unmarshal(secretData, &secretRules); err != nil {
		return nil, fmt.Errorf("catalog: parse secret rules: %w", err)
	}
	for _, r := range secretRules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("catalog: secret rule %q: %w", r.Name, err)
		}
		r.compiled = re
	}

	return &Catalog{Vulnerabilities: vulnRules, Secrets: secretRules}, nil
}
