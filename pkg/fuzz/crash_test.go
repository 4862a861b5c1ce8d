package fuzz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwality/kwality/pkg/sandbox"
	"github.com/kwality/kwality/pkg/types"
)

func TestClassifyCrashCleanExitIsNil(t *testing.T) {
	assert.Nil(t, ClassifyCrash(0, "segmentation fault"))
}

func TestClassifyCrashMatchesOrderedPatterns(t *testing.T) {
	cases := []struct {
		stderr string
		want   types.CrashKind
	}{
		{"Segmentation fault (core dumped)", types.CrashSegFault},
		{"fatal error: stack overflow", types.CrashStackOverflow},
		{"out of memory", types.CrashOutOfMemory},
		{"AssertionError: assertion failed", types.CrashAssertionFailure},
		{"unrelated failure text", types.CrashOther},
	}
	for _, tc := range cases {
		crash := ClassifyCrash(1, tc.stderr)
		require.NotNil(t, crash)
		assert.Equal(t, tc.want, crash.Kind)
	}
}

func TestClassifyCrashOtherCarriesExitCode(t *testing.T) {
	crash := ClassifyCrash(42, "no known pattern here")
	require.NotNil(t, crash)
	assert.Equal(t, types.CrashOther, crash.Kind)
	assert.Contains(t, crash.Detail, "42")
}

func TestCrashDetectorAnalyzeAndDedup(t *testing.T) {
	d := NewCrashDetector()

	result := &sandbox.ExecutionResult{ExitCode: 1, Stderr: "segmentation fault at 0x0"}
	crash1 := d.Analyze(result, []byte("input-a"))
	require.NotNil(t, crash1)
	assert.True(t, d.IsUnique(crash1))

	crash2 := d.Analyze(result, []byte("input-b"))
	require.NotNil(t, crash2)
	assert.False(t, d.IsUnique(crash2), "same kind and location must dedup")
}

func TestCrashDetectorDistinctLocationIsUnique(t *testing.T) {
	d := NewCrashDetector()

	c1 := d.Analyze(&sandbox.ExecutionResult{ExitCode: 1, Stderr: "segmentation fault in moduleA"}, nil)
	c2 := d.Analyze(&sandbox.ExecutionResult{ExitCode: 1, Stderr: "segmentation fault in moduleB"}, nil)

	assert.True(t, d.IsUnique(c1))
	assert.True(t, d.IsUnique(c2))
}

func TestFindingForCrashMapsSeverity(t *testing.T) {
	crash := ClassifyCrash(1, "segmentation fault")
	finding := FindingForCrash(crash)
	assert.Equal(t, types.FindingCrashProne, finding.Kind)
	assert.Equal(t, types.SeverityCritical, finding.Severity)
	assert.Equal(t, float64(1), finding.Confidence)
}
