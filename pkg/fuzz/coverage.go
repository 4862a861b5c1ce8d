package fuzz

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/kwality/kwality/pkg/sandbox"
)

// assumedTotalPaths is the denominator the original engine assumes for its
// coverage percentage; without per-language instrumentation there is no way
// to know the codebase's real path count, so this keeps the same simplified
// scale rather than inventing a false precision.
const assumedTotalPaths = 100.0

// CoverageTracker approximates path coverage from each execution's outward
// behavior (exit code plus a digest of stdout/stderr) since no per-language
// coverage instrumentation runs inside the sandbox. A new signature counts
// as newly covered; a repeat signature does not.
type CoverageTracker struct {
	mu    sync.Mutex
	paths map[string]int
}

func NewCoverageTracker() *CoverageTracker {
	return &CoverageTracker{paths: make(map[string]int)}
}

// Update records one execution and returns 1.0 if it exercised a path not
// seen before in this campaign, 0.0 otherwise.
func (c *CoverageTracker) Update(result *sandbox.ExecutionResult) float64 {
	sig := executionSignature(result)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paths[sig] == 0 {
		c.paths[sig] = 1
		return 1.0
	}
	c.paths[sig]++
	return 0.0
}

// Percentage returns the fraction of the assumed path space covered so far.
func (c *CoverageTracker) Percentage() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	pct := float64(len(c.paths)) / assumedTotalPaths * 100.0
	if pct > 100.0 {
		pct = 100.0
	}
	return pct
}

// PathCount returns the number of distinct signatures observed.
func (c *CoverageTracker) PathCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.paths)
}

func executionSignature(result *sandbox.ExecutionResult) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|", result.ExitCode)
	h.Write([]byte(result.Stdout))
	h.Write([]byte{0})
	h.Write([]byte(result.Stderr))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
