package fuzz

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwality/kwality/pkg/config"
	"github.com/kwality/kwality/pkg/sandbox"
	"github.com/kwality/kwality/pkg/types"
)

// fakeSandbox is a minimal sandbox.Driver stub so the Fuzz Driver can be
// tested without a containerd daemon.
type fakeSandbox struct {
	calls   int64
	execute func(stdin []byte) (*sandbox.ExecutionResult, error)
}

func (f *fakeSandbox) Connect(ctx context.Context) error { return nil }
func (f *fakeSandbox) CreateEnvironment(ctx context.Context, codebase *types.Codebase) (*types.Environment, error) {
	return &types.Environment{}, nil
}
func (f *fakeSandbox) Execute(ctx context.Context, env *types.Environment, command []string) (*sandbox.ExecutionResult, error) {
	return f.ExecuteInput(ctx, env, command, nil)
}
func (f *fakeSandbox) ExecuteInput(ctx context.Context, env *types.Environment, command []string, stdin []byte) (*sandbox.ExecutionResult, error) {
	atomic.AddInt64(&f.calls, 1)
	return f.execute(stdin)
}
func (f *fakeSandbox) Cleanup(ctx context.Context, env *types.Environment) error { return nil }
func (f *fakeSandbox) Health(ctx context.Context) (*sandbox.HealthReport, error) {
	return &sandbox.HealthReport{}, nil
}
func (f *fakeSandbox) Close() error { return nil }

func TestRunZeroIterationsReturnsEmptyResult(t *testing.T) {
	cfg := config.Default().Fuzzing
	cfg.Iterations = 0
	fake := &fakeSandbox{execute: func(stdin []byte) (*sandbox.ExecutionResult, error) {
		return &sandbox.ExecutionResult{}, nil
	}}

	d := New(&cfg, fake)
	result, err := d.Run(context.Background(), &types.Environment{}, []string{"echo"})

	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalExecutions)
	assert.Equal(t, 0.0, result.CoveragePercentage)
	assert.Empty(t, result.UniqueCrashes)
}

func TestRunExecutesEachIterationAndDetectsCrash(t *testing.T) {
	cfg := config.Default().Fuzzing
	cfg.Iterations = 5
	cfg.DurationSeconds = 5
	cfg.Strategy = types.FuzzStrategyRandom
	cfg.CoverageGuided = true

	fake := &fakeSandbox{execute: func(stdin []byte) (*sandbox.ExecutionResult, error) {
		return &sandbox.ExecutionResult{ExitCode: 1, Stderr: "segmentation fault"}, nil
	}}

	d := New(&cfg, fake)
	result, err := d.Run(context.Background(), &types.Environment{}, []string{"run"})

	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalExecutions)
	require.Len(t, result.UniqueCrashes, 1, "identical crash signature across all 5 iterations should dedup to one")
	assert.Equal(t, types.CrashSegFault, result.UniqueCrashes[0].Kind)

	findings := d.Findings(result)
	require.Len(t, findings, 1)
	assert.Equal(t, types.SeverityCritical, findings[0].Severity)
}

func TestRunHealthyExecutionsProduceNoCrashes(t *testing.T) {
	cfg := config.Default().Fuzzing
	cfg.Iterations = 3
	cfg.DurationSeconds = 5

	fake := &fakeSandbox{execute: func(stdin []byte) (*sandbox.ExecutionResult, error) {
		return &sandbox.ExecutionResult{ExitCode: 0, Stdout: "ok"}, nil
	}}

	d := New(&cfg, fake)
	result, err := d.Run(context.Background(), &types.Environment{}, []string{"run"})

	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalExecutions)
	assert.Empty(t, result.UniqueCrashes)
	assert.Greater(t, result.CoveragePercentage, 0.0)
}
