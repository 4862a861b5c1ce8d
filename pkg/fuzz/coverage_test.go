package fuzz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kwality/kwality/pkg/sandbox"
)

func TestCoverageTrackerNewPathIncreasesCoverage(t *testing.T) {
	c := NewCoverageTracker()

	first := &sandbox.ExecutionResult{ExitCode: 0, Stdout: "a"}
	assert.Equal(t, 1.0, c.Update(first))

	repeat := &sandbox.ExecutionResult{ExitCode: 0, Stdout: "a"}
	assert.Equal(t, 0.0, c.Update(repeat))

	second := &sandbox.ExecutionResult{ExitCode: 0, Stdout: "b"}
	assert.Equal(t, 1.0, c.Update(second))

	assert.Equal(t, 2, c.PathCount())
	assert.Greater(t, c.Percentage(), 0.0)
}

func TestCoverageTrackerPercentageCapsAt100(t *testing.T) {
	c := NewCoverageTracker()
	for i := 0; i < 150; i++ {
		c.Update(&sandbox.ExecutionResult{ExitCode: 0, Stdout: string(rune('a' + i%26)), Stderr: string(rune(i))})
	}
	assert.LessOrEqual(t, c.Percentage(), 100.0)
}
