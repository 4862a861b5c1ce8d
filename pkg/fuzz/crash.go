package fuzz

import (
	"container/ring"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kwality/kwality/pkg/sandbox"
	"github.com/kwality/kwality/pkg/types"
)

// crashHistoryLimit bounds the detector's retained crash history, matching
// the original engine's 1000-entry cap.
const crashHistoryLimit = 1000

type crashPattern struct {
	re   *regexp.Regexp
	kind types.CrashKind
}

// crashPatterns is the ordered stderr-regex table; first match wins.
var crashPatterns = []crashPattern{
	{regexp.MustCompile(`(?i)segmentation fault|segfault`), types.CrashSegFault},
	{regexp.MustCompile(`(?i)stack overflow`), types.CrashStackOverflow},
	{regexp.MustCompile(`(?i)out of memory|oom`), types.CrashOutOfMemory},
	{regexp.MustCompile(`(?i)assertion failed|panic`), types.CrashAssertionFailure},
}

// CrashDetector classifies and deduplicates crashes observed during a fuzz
// campaign. Exclusive to one campaign: construct a fresh detector per run.
type CrashDetector struct {
	mu      sync.Mutex
	history *ring.Ring
	seen    map[string]struct{}
}

func NewCrashDetector() *CrashDetector {
	return &CrashDetector{
		history: ring.New(crashHistoryLimit),
		seen:    make(map[string]struct{}),
	}
}

// Analyze returns a Crash for a non-zero exit code, or nil for a clean run.
func (d *CrashDetector) Analyze(result *sandbox.ExecutionResult, input []byte) *types.Crash {
	crash := ClassifyCrash(result.ExitCode, result.Stderr)
	if crash == nil {
		return nil
	}
	crash.Input = input

	d.mu.Lock()
	d.history.Value = crash
	d.history = d.history.Next()
	d.mu.Unlock()

	return crash
}

// ClassifyCrash applies the ordered stderr-regex table to one execution's
// outcome, independent of any campaign state. Exported so the orchestrator
// can classify a single RuntimeExecution failure the same way the Fuzz
// Driver classifies campaign crashes — exit code 0 is never a crash.
func ClassifyCrash(exitCode int, stderr string) *types.Crash {
	if exitCode == 0 {
		return nil
	}

	kind := types.CrashOther
	detail := fmt.Sprintf("exit code %d", exitCode)
	for _, p := range crashPatterns {
		if p.re.MatchString(stderr) {
			kind = p.kind
			detail = ""
			break
		}
	}

	return &types.Crash{
		Kind:       kind,
		Detail:     detail,
		Location:   crashLocation(stderr),
		ExitCode:   exitCode,
		Stderr:     stderr,
		ObservedAt: time.Now(),
	}
}

// IsUnique reports whether crash has not been recorded before, by the
// (kind, location) dedup key, and records it if so.
func (d *CrashDetector) IsUnique(crash *types.Crash) bool {
	key := string(crash.Kind) + "|" + crash.Location

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Seed pre-populates the dedup set from a previous campaign's crash keys, so
// a repeat run against the same codebase doesn't re-report crashes it
// already found last time.
func (d *CrashDetector) Seed(keys []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, k := range keys {
		d.seen[k] = struct{}{}
	}
}

// SeenKeys returns every dedup key recorded so far, for persisting across
// campaigns.
func (d *CrashDetector) SeenKeys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	keys := make([]string, 0, len(d.seen))
	for k := range d.seen {
		keys = append(keys, k)
	}
	return keys
}

// FindingForCrash converts one Crash into a CrashProne Finding, the
// representation both the Fuzz Driver and a single RuntimeExecution failure
// share.
func FindingForCrash(crash *types.Crash) *types.Finding {
	description := crash.Stderr
	if crash.Detail != "" {
		description = fmt.Sprintf("%s (%s)", crash.Stderr, crash.Detail)
	}

	return &types.Finding{
		ID:          uuid.NewString(),
		Kind:        types.FindingCrashProne,
		Severity:    crashSeverity(crash.Kind),
		Title:       fmt.Sprintf("Crash detected: %s", crash.Kind),
		Description: description,
		Evidence: map[string]string{
			"exit_code": fmt.Sprintf("%d", crash.ExitCode),
			"location":  crash.Location,
		},
		Confidence: 1,
	}
}

func crashSeverity(kind types.CrashKind) types.Severity {
	switch kind {
	case types.CrashSegFault:
		return types.SeverityCritical
	case types.CrashStackOverflow, types.CrashOutOfMemory:
		return types.SeverityHigh
	case types.CrashAssertionFailure:
		return types.SeverityMedium
	default:
		return types.SeverityMedium
	}
}

// crashLocation derives a coarse dedup location from the first non-empty
// stderr line: the closest thing to a stack-trace frame available without a
// language-specific symbolizer.
func crashLocation(stderr string) string {
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			if len(line) > 120 {
				line = line[:120]
			}
			return line
		}
	}
	return ""
}
