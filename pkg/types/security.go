package types

import "time"

// VulnerabilityKind names a class of static-scan vulnerability match.
type VulnerabilityKind string

// SecretKind names a class of static-scan secret match.
type SecretKind string

const (
	SecretKindAPIKey     SecretKind = "ApiKey"
	SecretKindPassword   SecretKind = "Password"
	SecretKindPrivateKey SecretKind = "PrivateKey"
	SecretKindToken      SecretKind = "Token"
	SecretKindOther      SecretKind = "Other"
)

// Vulnerability is one static-scan vulnerability-pattern match.
type Vulnerability struct {
	Kind        VulnerabilityKind
	FilePath    string
	Line        int // one-based
	Severity    Severity
	Description string
	Remediation string
	CVEID       string  // optional, from catalogue data
	CVSSScore   float64 // optional, 0 means unset
}

// SecretFinding is one static-scan secret-pattern match.
type SecretFinding struct {
	Kind       SecretKind
	FilePath   string
	Line       int // one-based
	Match      string // matched substring
	Context    string // +/-3 line window
	Severity   Severity
	Confidence float64 // [0, 1]
}

// ViolationType names a sandbox runtime-policy violation class.
type ViolationType string

const (
	ViolationUnauthorizedSyscall ViolationType = "UnauthorizedSyscall"
	ViolationNetworkAccess       ViolationType = "NetworkAccess"
	ViolationFileSystemAccess    ViolationType = "FileSystemAccess"
)

// RiskTag is a coarse per-violation risk label, distinct from the
// component-wide RiskLevel computed from the aggregate score.
type RiskTag string

const (
	RiskTagCritical RiskTag = "critical"
	RiskTagHigh     RiskTag = "high"
	RiskTagMedium   RiskTag = "medium"
	RiskTagLow      RiskTag = "low"
)

// SecurityViolation is one runtime-policy breach observed during execution.
type SecurityViolation struct {
	Type      ViolationType
	Timestamp time.Time
	Risk      RiskTag
	Evidence  string
	Mitigation string
}

// AnomalyKind names the category of behavior a BehavioralAnomaly deviates in.
type AnomalyKind string

const (
	AnomalySyscall  AnomalyKind = "syscall"
	AnomalyFile     AnomalyKind = "file_access"
	AnomalyNetwork  AnomalyKind = "network"
	AnomalyResource AnomalyKind = "resource_usage"
)

// BehavioralAnomaly is a deviation from the configured baseline-behavior
// profile, scored against the behavior analyzer's anomaly threshold.
type BehavioralAnomaly struct {
	Kind      AnomalyKind
	Observed  string
	Baseline  string
	Score     float64 // [0, 1]; compared against the anomaly threshold
}

// ComplianceCheck is one pass/fail entry in the fixed compliance checklist.
type ComplianceCheck struct {
	Name        string
	Passed      bool
	Description string
}

// RiskLevel is a categorical summary derived from the clamped security score.
type RiskLevel string

const (
	RiskLevelCritical RiskLevel = "Critical"
	RiskLevelHigh     RiskLevel = "High"
	RiskLevelMedium   RiskLevel = "Medium"
	RiskLevelLow      RiskLevel = "Low"
	RiskLevelMinimal  RiskLevel = "Minimal"
)

// SecurityResult is the Security Observer's full verdict for one run.
type SecurityResult struct {
	Vulnerabilities  []*Vulnerability
	Secrets          []*SecretFinding
	Violations       []*SecurityViolation
	Anomalies        []*BehavioralAnomaly
	ComplianceChecks []*ComplianceCheck
	Score            float64 // [0, 100]
	RiskLevel        RiskLevel
}
