/*
Package types defines the core data structures shared across kwality.

This package contains the domain model used by every other package: the
Codebase submitted for validation, the per-run Environment and
ValidationSession, the externalized ValidationResult with its Findings and
Recommendations, and the component-specific result shapes produced by the
security, performance, fuzzing, and metrics engines.

# Core Types

Input:
  - Codebase, CodeFile, FileType

Session and result:
  - ValidationSession, Progress, Status, Phase
  - ValidationResult, Finding, FindingKind, Severity, Recommendation

Engine outputs:
  - SecurityResult, Vulnerability, SecretFinding, SecurityViolation,
    BehavioralAnomaly, ComplianceCheck, RiskLevel
  - PerformanceMetrics, BenchmarkResult, Bottleneck, ResourceUsage
  - FuzzingResult, Crash, PerformanceAnomaly
  - MetricsSnapshot, Alert, RingPoint, SystemStatus

All types are plain structs intended for direct JSON marshaling; enums are
string-typed constants rather than integers so the wire format matches §6 of
the design ("enums as their unqualified names").

# Ownership

A ValidationSession is exclusively owned by the orchestrator's session
registry. External readers call Snapshot() to get an immutable copy rather
than holding a reference into the registry's live state.
*/
package types
