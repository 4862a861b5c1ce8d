package main

import (
	"encoding/json"
	"time"

	"github.com/kwality/kwality/pkg/types"
)

// codebaseDocument is the on-disk shape of the -i/--input document: snake_case
// field names, independent of the internal types.Codebase layout so the
// engine's Go-side field names can evolve without breaking the wire format.
type codebaseDocument struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Files    []codeFileDocument  `json:"files"`
	Metadata map[string]string   `json:"metadata"`
}

type codeFileDocument struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
	FileType string `json:"file_type"`
	Size     int64  `json:"size"`
}

func decodeCodebase(data []byte) (*types.Codebase, error) {
	var doc codebaseDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	files := make([]*types.CodeFile, len(doc.Files))
	for i, f := range doc.Files {
		fileType := types.FileType(f.FileType)
		if fileType == "" {
			fileType = types.FileTypeSource
		}
		files[i] = &types.CodeFile{
			Path:     f.Path,
			Content:  f.Content,
			Language: f.Language,
			FileType: fileType,
			Size:     f.Size,
		}
	}

	return &types.Codebase{
		ID:       doc.ID,
		Name:     doc.Name,
		Files:    files,
		Metadata: doc.Metadata,
	}, nil
}

// wireDuration serializes a time.Duration as the second/nanosecond pair the
// result document format calls for, rather than encoding/json's default
// plain-integer-nanoseconds rendering.
type wireDuration struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

func toWireDuration(d time.Duration) wireDuration {
	return wireDuration{
		Seconds:     int64(d / time.Second),
		Nanoseconds: int64(d % time.Second),
	}
}

type findingDocument struct {
	ID          string            `json:"id"`
	Kind        string            `json:"kind"`
	Severity    string            `json:"severity"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	FilePath    string            `json:"file_path,omitempty"`
	Line        int               `json:"line,omitempty"`
	Evidence    map[string]string `json:"evidence,omitempty"`
	Confidence  float64           `json:"confidence"`
}

func toFindingDocument(f *types.Finding) findingDocument {
	return findingDocument{
		ID:          f.ID,
		Kind:        string(f.Kind),
		Severity:    string(f.Severity),
		Title:       f.Title,
		Description: f.Description,
		FilePath:    f.FilePath,
		Line:        f.Line,
		Evidence:    f.Evidence,
		Confidence:  f.Confidence,
	}
}

type recommendationDocument struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Action      string `json:"action"`
	Effort      string `json:"effort"`
	Impact      string `json:"impact"`
}

func toRecommendationDocument(r *types.Recommendation) recommendationDocument {
	return recommendationDocument{
		Title:       r.Title,
		Description: r.Description,
		Priority:    string(r.Priority),
		Action:      r.Action,
		Effort:      string(r.Effort),
		Impact:      string(r.Impact),
	}
}

type vulnerabilityDocument struct {
	Kind        string  `json:"kind"`
	FilePath    string  `json:"file_path"`
	Line        int     `json:"line"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Remediation string  `json:"remediation"`
	CVEID       string  `json:"cve_id,omitempty"`
	CVSSScore   float64 `json:"cvss_score,omitempty"`
}

type secretFindingDocument struct {
	Kind       string  `json:"kind"`
	FilePath   string  `json:"file_path"`
	Line       int     `json:"line"`
	Match      string  `json:"match"`
	Context    string  `json:"context"`
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`
}

type securityViolationDocument struct {
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Risk       string    `json:"risk"`
	Evidence   string    `json:"evidence"`
	Mitigation string    `json:"mitigation"`
}

type behavioralAnomalyDocument struct {
	Kind     string  `json:"kind"`
	Observed string  `json:"observed"`
	Baseline string  `json:"baseline"`
	Score    float64 `json:"score"`
}

type complianceCheckDocument struct {
	Name        string `json:"name"`
	Passed      bool   `json:"passed"`
	Description string `json:"description"`
}

type securityResultDocument struct {
	Vulnerabilities  []vulnerabilityDocument     `json:"vulnerabilities"`
	Secrets          []secretFindingDocument     `json:"secrets"`
	Violations       []securityViolationDocument `json:"violations"`
	Anomalies        []behavioralAnomalyDocument `json:"anomalies"`
	ComplianceChecks []complianceCheckDocument   `json:"compliance_checks"`
	Score            float64                     `json:"score"`
	RiskLevel        string                      `json:"risk_level"`
}

func toSecurityResultDocument(s *types.SecurityResult) *securityResultDocument {
	if s == nil {
		return nil
	}

	doc := &securityResultDocument{Score: s.Score, RiskLevel: string(s.RiskLevel)}
	for _, v := range s.Vulnerabilities {
		doc.Vulnerabilities = append(doc.Vulnerabilities, vulnerabilityDocument{
			Kind: string(v.Kind), FilePath: v.FilePath, Line: v.Line, Severity: string(v.Severity),
			Description: v.Description, Remediation: v.Remediation, CVEID: v.CVEID, CVSSScore: v.CVSSScore,
		})
	}
	for _, s := range s.Secrets {
		doc.Secrets = append(doc.Secrets, secretFindingDocument{
			Kind: string(s.Kind), FilePath: s.FilePath, Line: s.Line, Match: s.Match,
			Context: s.Context, Severity: string(s.Severity), Confidence: s.Confidence,
		})
	}
	for _, v := range s.Violations {
		doc.Violations = append(doc.Violations, securityViolationDocument{
			Type: string(v.Type), Timestamp: v.Timestamp, Risk: string(v.Risk),
			Evidence: v.Evidence, Mitigation: v.Mitigation,
		})
	}
	for _, a := range s.Anomalies {
		doc.Anomalies = append(doc.Anomalies, behavioralAnomalyDocument{
			Kind: string(a.Kind), Observed: a.Observed, Baseline: a.Baseline, Score: a.Score,
		})
	}
	for _, c := range s.ComplianceChecks {
		doc.ComplianceChecks = append(doc.ComplianceChecks, complianceCheckDocument{
			Name: c.Name, Passed: c.Passed, Description: c.Description,
		})
	}
	return doc
}

type ioCountersDocument struct {
	ReadBytes  int64        `json:"read_bytes"`
	WriteBytes int64        `json:"write_bytes"`
	ReadOps    int64        `json:"read_ops"`
	WriteOps   int64        `json:"write_ops"`
	IOWait     wireDuration `json:"io_wait"`
}

func toIOCountersDocument(io types.IOCounters) ioCountersDocument {
	return ioCountersDocument{
		ReadBytes: io.ReadBytes, WriteBytes: io.WriteBytes,
		ReadOps: io.ReadOps, WriteOps: io.WriteOps,
		IOWait: toWireDuration(io.IOWait),
	}
}

type bottleneckDocument struct {
	Kind        string `json:"kind"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

type benchmarkResultDocument struct {
	Kind             string  `json:"kind"`
	Iterations       int     `json:"iterations"`
	MeanNanos        float64 `json:"mean_nanos"`
	MinNanos         float64 `json:"min_nanos"`
	MaxNanos         float64 `json:"max_nanos"`
	StdDevNanos      float64 `json:"std_dev_nanos"`
	ThroughputOpsS   float64 `json:"throughput_ops_s"`
	MemoryPerOpBytes int64   `json:"memory_per_op_bytes"`
}

type callGraphSummaryDocument struct {
	TotalFunctions int `json:"total_functions"`
	CallDepth      int `json:"call_depth"`
	RecursiveCalls int `json:"recursive_calls"`
}

type profilingBundleDocument struct {
	CPUTimeMs       int64                    `json:"cpu_time_ms"`
	UserCPUTimeMs   int64                    `json:"user_cpu_time_ms"`
	SystemCPUTimeMs int64                    `json:"system_cpu_time_ms"`
	HeapAllocMB     float64                  `json:"heap_alloc_mb"`
	CallGraph       callGraphSummaryDocument `json:"call_graph"`
}

type performanceMetricsDocument struct {
	ExecutionTime   wireDuration              `json:"execution_time"`
	FinalMemoryMB   float64                   `json:"final_memory_mb"`
	PeakMemoryMB    float64                   `json:"peak_memory_mb"`
	CPUUsagePercent float64                   `json:"cpu_usage_percent"`
	IO              ioCountersDocument        `json:"io"`
	Benchmarks      []benchmarkResultDocument `json:"benchmarks,omitempty"`
	Profiling       profilingBundleDocument   `json:"profiling"`
	Bottlenecks     []bottleneckDocument      `json:"bottlenecks,omitempty"`
	Recommendations []recommendationDocument  `json:"recommendations,omitempty"`
}

func toPerformanceMetricsDocument(p *types.PerformanceMetrics) *performanceMetricsDocument {
	if p == nil {
		return nil
	}

	doc := &performanceMetricsDocument{
		ExecutionTime:   toWireDuration(p.ExecutionTime),
		FinalMemoryMB:   p.FinalMemoryMB,
		PeakMemoryMB:    p.PeakMemoryMB,
		CPUUsagePercent: p.CPUUsagePercent,
		IO:              toIOCountersDocument(p.IO),
		Profiling: profilingBundleDocument{
			CPUTimeMs: p.Profiling.CPUTimeMs, UserCPUTimeMs: p.Profiling.UserCPUTimeMs,
			SystemCPUTimeMs: p.Profiling.SystemCPUTimeMs, HeapAllocMB: p.Profiling.HeapAllocMB,
			CallGraph: callGraphSummaryDocument{
				TotalFunctions: p.Profiling.CallGraph.TotalFunctions,
				CallDepth:      p.Profiling.CallGraph.CallDepth,
				RecursiveCalls: p.Profiling.CallGraph.RecursiveCalls,
			},
		},
	}
	for _, b := range p.Benchmarks {
		doc.Benchmarks = append(doc.Benchmarks, benchmarkResultDocument{
			Kind: string(b.Kind), Iterations: b.Iterations, MeanNanos: b.MeanNanos,
			MinNanos: b.MinNanos, MaxNanos: b.MaxNanos, StdDevNanos: b.StdDevNanos,
			ThroughputOpsS: b.ThroughputOpsS, MemoryPerOpBytes: b.MemoryPerOpBytes,
		})
	}
	for _, bn := range p.Bottlenecks {
		doc.Bottlenecks = append(doc.Bottlenecks, bottleneckDocument{
			Kind: string(bn.Kind), Severity: string(bn.Severity), Description: bn.Description,
		})
	}
	for _, r := range p.Recommendations {
		doc.Recommendations = append(doc.Recommendations, toRecommendationDocument(r))
	}
	return doc
}

type crashDocument struct {
	Kind       string    `json:"kind"`
	Detail     string    `json:"detail,omitempty"`
	Location   string    `json:"location"`
	ExitCode   int       `json:"exit_code"`
	Stderr     string    `json:"stderr"`
	ObservedAt time.Time `json:"observed_at"`
}

type interestingInputDocument struct {
	UniquenessScore  float64 `json:"uniqueness_score"`
	CoverageIncrease float64 `json:"coverage_increase"`
}

type performanceAnomalyDocument struct {
	Kind     string  `json:"kind"`
	Baseline float64 `json:"baseline"`
	Observed float64 `json:"observed"`
	Severity float64 `json:"severity"`
}

type fuzzingResultDocument struct {
	Strategy             string                       `json:"strategy"`
	TotalExecutions      int                          `json:"total_executions"`
	UniqueCrashes        []crashDocument              `json:"unique_crashes"`
	CoveragePercentage   float64                      `json:"coverage_percentage"`
	InterestingInputs    []interestingInputDocument   `json:"interesting_inputs"`
	PerformanceAnomalies []performanceAnomalyDocument `json:"performance_anomalies"`
}

func toFuzzingResultDocument(f *types.FuzzingResult) *fuzzingResultDocument {
	if f == nil {
		return nil
	}

	doc := &fuzzingResultDocument{
		Strategy: string(f.Strategy), TotalExecutions: f.TotalExecutions,
		CoveragePercentage: f.CoveragePercentage,
	}
	for _, c := range f.UniqueCrashes {
		doc.UniqueCrashes = append(doc.UniqueCrashes, crashDocument{
			Kind: string(c.Kind), Detail: c.Detail, Location: c.Location,
			ExitCode: c.ExitCode, Stderr: c.Stderr, ObservedAt: c.ObservedAt,
		})
	}
	for _, ii := range f.InterestingInputs {
		doc.InterestingInputs = append(doc.InterestingInputs, interestingInputDocument{
			UniquenessScore: ii.UniquenessScore, CoverageIncrease: ii.CoverageIncrease,
		})
	}
	for _, a := range f.PerformanceAnomalies {
		doc.PerformanceAnomalies = append(doc.PerformanceAnomalies, performanceAnomalyDocument{
			Kind: string(a.Kind), Baseline: a.Baseline, Observed: a.Observed, Severity: a.Severity,
		})
	}
	return doc
}

// resultDocument is the on-disk shape of the -o/--output document: it
// mirrors types.ValidationResult field-for-field, translating durations to
// second/nanosecond pairs and enums to their bare (unqualified) names.
type resultDocument struct {
	ValidationID    string                       `json:"validation_id"`
	CodebaseID      string                       `json:"codebase_id"`
	Status          string                       `json:"status"`
	StartedAt       time.Time                    `json:"started_at"`
	CompletedAt     time.Time                    `json:"completed_at"`
	Duration        wireDuration                 `json:"duration"`
	OverallScore    float64                      `json:"overall_score"`
	Security        *securityResultDocument      `json:"security,omitempty"`
	Performance     *performanceMetricsDocument  `json:"performance,omitempty"`
	Fuzzing         *fuzzingResultDocument       `json:"fuzzing,omitempty"`
	Findings        []findingDocument            `json:"findings"`
	Recommendations []recommendationDocument     `json:"recommendations"`
	Metadata        map[string]string            `json:"metadata"`
}

func encodeResult(result *types.ValidationResult) ([]byte, error) {
	doc := resultDocument{
		ValidationID: result.ValidationID,
		CodebaseID:   result.CodebaseID,
		Status:       string(result.Status),
		StartedAt:    result.StartedAt,
		CompletedAt:  result.CompletedAt,
		Duration:     toWireDuration(result.Duration),
		OverallScore: result.OverallScore,
		Security:     toSecurityResultDocument(result.Security),
		Performance:  toPerformanceMetricsDocument(result.Performance),
		Fuzzing:      toFuzzingResultDocument(result.Fuzzing),
		Metadata:     result.Metadata,
	}
	for _, f := range result.Findings {
		doc.Findings = append(doc.Findings, toFindingDocument(f))
	}
	for _, r := range result.Recommendations {
		doc.Recommendations = append(doc.Recommendations, toRecommendationDocument(r))
	}

	return json.MarshalIndent(doc, "", "  ")
}
