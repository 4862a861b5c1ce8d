package types

import "time"

// FuzzStrategy selects which input generator the Fuzz Driver uses.
type FuzzStrategy string

const (
	FuzzStrategyRandom     FuzzStrategy = "Random"
	FuzzStrategyStructured FuzzStrategy = "Structured"
	FuzzStrategyGrammar    FuzzStrategy = "Grammar"
	FuzzStrategyMutation   FuzzStrategy = "Mutation"
)

// CrashKind classifies a fuzz-campaign crash by its stderr signature.
type CrashKind string

const (
	CrashSegFault          CrashKind = "SegFault"
	CrashStackOverflow     CrashKind = "StackOverflow"
	CrashOutOfMemory       CrashKind = "OutOfMemory"
	CrashAssertionFailure  CrashKind = "AssertionFailure"
	CrashOther             CrashKind = "Other" // carries the exit code in Detail
)

// Crash is one deduplicated fuzz-campaign crash.
type Crash struct {
	Kind       CrashKind
	Detail     string // e.g. the exit code for CrashOther
	Location   string // dedup key component alongside Kind
	Input      []byte
	ExitCode   int
	Stderr     string
	ObservedAt time.Time
}

// PerfAnomalyKind names a fuzz-campaign performance anomaly class.
type PerfAnomalyKind string

const (
	PerfAnomalyExcessiveExecutionTime PerfAnomalyKind = "ExcessiveExecutionTime"
	PerfAnomalyMemoryLeak             PerfAnomalyKind = "MemoryLeak" // suspected, not confirmed
)

// PerformanceAnomaly is one fuzz-campaign execution outlier.
type PerformanceAnomaly struct {
	Kind     PerfAnomalyKind
	Baseline float64
	Observed float64
	Severity float64 // [0, 1]
}

// InterestingInput is one generated input that increased coverage, retained
// for the campaign's uniqueness scoring and, optionally, for seeding a
// future campaign against the same codebase.
type InterestingInput struct {
	Input           []byte
	UniquenessScore float64
	CoverageIncrease float64
}

// FuzzingResult is the Fuzz Driver's full record for one campaign.
type FuzzingResult struct {
	Strategy             FuzzStrategy
	TotalExecutions      int
	UniqueCrashes        []*Crash
	CoveragePercentage   float64
	InterestingInputs    []*InterestingInput
	PerformanceAnomalies []*PerformanceAnomaly
}
