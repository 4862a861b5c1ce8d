package fuzz

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kwality/kwality/pkg/config"
	"github.com/kwality/kwality/pkg/log"
	"github.com/kwality/kwality/pkg/sandbox"
	"github.com/kwality/kwality/pkg/storage"
	"github.com/kwality/kwality/pkg/types"
)

// concurrencyCap bounds how many generated inputs are in flight against the
// sandbox at once; each gets its own container, so this is a cost control,
// not a correctness requirement.
const concurrencyCap = 4

// interestingCorpusLimit bounds how many interesting inputs are retained for
// uniqueness scoring, so a long campaign's distance calculation stays cheap.
const interestingCorpusLimit = 200

// Driver is the Fuzz Driver: it generates inputs with the configured
// strategy, re-executes every one of them through the real Sandbox Driver,
// and tracks crashes, coverage, and performance anomalies across the
// campaign.
type Driver struct {
	cfg     *config.FuzzingConfig
	sandbox sandbox.Driver
	corpus  storage.CorpusStore
}

// New builds a Driver from the fuzzing configuration section and the
// Sandbox Driver it will execute inputs through. A nil cfg falls back to
// package defaults.
func New(cfg *config.FuzzingConfig, sandboxDriver sandbox.Driver) *Driver {
	if cfg == nil {
		d := config.Default().Fuzzing
		cfg = &d
	}
	return &Driver{cfg: cfg, sandbox: sandboxDriver}
}

// UseCorpusStore opts the Driver into warming and persisting its corpus and
// crash dedup keys through store, keyed by codebase ID. Without this call
// every campaign runs cold, which is the default and fully spec-compliant
// behavior.
func (d *Driver) UseCorpusStore(store storage.CorpusStore) {
	d.corpus = store
}

type campaignState struct {
	mu            sync.Mutex
	executions    int
	crashesFound  int
	uniqueCrashes []*types.Crash
	corpus        [][]byte
	interesting   []*types.InterestingInput
	anomalies     []*types.PerformanceAnomaly
}

// Run executes the campaign against env using entrypoint as the command,
// for up to cfg.Iterations tries or cfg.DurationSeconds, whichever comes
// first. An Iterations of 0 returns an empty, zero-error result.
func (d *Driver) Run(ctx context.Context, env *types.Environment, entrypoint []string) (*types.FuzzingResult, error) {
	logger := log.WithComponent("fuzz")

	if d.cfg.Iterations <= 0 {
		return &types.FuzzingResult{Strategy: d.cfg.Strategy}, nil
	}

	deadline := time.Duration(d.cfg.DurationSeconds) * time.Second
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	campaignCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	generator := NewGenerator(d.cfg.Strategy)
	coverage := NewCoverageTracker()
	detector := NewCrashDetector()
	state := &campaignState{}

	codebaseID := ""
	if env.Codebase != nil {
		codebaseID = env.Codebase.ID
	}
	if d.corpus != nil && codebaseID != "" {
		if keys, err := d.corpus.LoadCrashKeys(codebaseID); err == nil {
			detector.Seed(keys)
		}
		if seeds, err := d.corpus.LoadCorpus(codebaseID); err == nil {
			state.corpus = append(state.corpus, seeds...)
		}
	}

	// Pace iterations across the campaign window instead of firing every
	// one at once: interval is the campaign's fair share per iteration.
	interval := deadline / time.Duration(d.cfg.Iterations)
	if interval <= 0 {
		interval = time.Millisecond
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	g, gctx := errgroup.WithContext(campaignCtx)
	g.SetLimit(concurrencyCap)

	start := time.Now()

loop:
	for i := 0; i < d.cfg.Iterations; i++ {
		if err := limiter.Wait(gctx); err != nil {
			break loop
		}

		rng := rand.New(rand.NewSource(int64(uuid.New().ID())))
		input := generator.Generate(rng)

		g.Go(func() error {
			d.runOne(gctx, env, entrypoint, input, coverage, detector, state)
			return nil
		})
	}

	_ = g.Wait()

	if d.corpus != nil && codebaseID != "" {
		seeds := make([][]byte, len(state.interesting))
		for i, ii := range state.interesting {
			seeds[i] = ii.Input
		}
		if len(seeds) > 0 {
			_ = d.corpus.SaveCorpus(codebaseID, seeds)
		}
		_ = d.corpus.SaveCrashKeys(codebaseID, detector.SeenKeys())
	}

	result := &types.FuzzingResult{
		Strategy:             d.cfg.Strategy,
		TotalExecutions:      state.executions,
		UniqueCrashes:        state.uniqueCrashes,
		CoveragePercentage:   coverage.Percentage(),
		InterestingInputs:    state.interesting,
		PerformanceAnomalies: state.anomalies,
	}

	logger.Info().
		Int("executions", result.TotalExecutions).
		Int("unique_crashes", len(result.UniqueCrashes)).
		Float64("coverage_percent", result.CoveragePercentage).
		Dur("campaign_duration", time.Since(start)).
		Msg("fuzz campaign complete")

	return result, nil
}

func (d *Driver) runOne(
	ctx context.Context,
	env *types.Environment,
	entrypoint []string,
	input []byte,
	coverage *CoverageTracker,
	detector *CrashDetector,
	state *campaignState,
) {
	execResult, err := d.sandbox.ExecuteInput(ctx, env, entrypoint, input)
	if err != nil {
		return
	}

	state.mu.Lock()
	state.executions++
	state.mu.Unlock()

	if crash := detector.Analyze(execResult, input); crash != nil {
		state.mu.Lock()
		state.crashesFound++
		if detector.IsUnique(crash) {
			state.uniqueCrashes = append(state.uniqueCrashes, crash)
		}
		state.mu.Unlock()
	}

	if d.cfg.CoverageGuided {
		if change := coverage.Update(execResult); change > 0 {
			state.mu.Lock()
			score := uniquenessScore(input, state.corpus)
			if len(state.corpus) < interestingCorpusLimit {
				state.corpus = append(state.corpus, input)
				state.interesting = append(state.interesting, &types.InterestingInput{
					Input:            input,
					UniquenessScore:  score,
					CoverageIncrease: change,
				})
			}
			state.mu.Unlock()
		}
	}

	if anomaly := detectPerformanceAnomaly(execResult); anomaly != nil {
		state.mu.Lock()
		state.anomalies = append(state.anomalies, anomaly)
		state.mu.Unlock()
	}
}

const (
	excessiveExecutionMs = 1000
	memoryLeakThresholdMB = 50
)

// detectPerformanceAnomaly flags one execution as anomalous if it ran far
// longer than a fast baseline or retained far more memory than expected,
// mirroring the campaign-level bottleneck thresholds in pkg/performance but
// scoped to a single fuzz iteration.
func detectPerformanceAnomaly(result *sandbox.ExecutionResult) *types.PerformanceAnomaly {
	if ms := result.Duration.Milliseconds(); ms > excessiveExecutionMs {
		return &types.PerformanceAnomaly{
			Kind:     types.PerfAnomalyExcessiveExecutionTime,
			Baseline: 50,
			Observed: float64(ms),
			Severity: minFloat(float64(ms)/1000.0, 1.0),
		}
	}

	if result.Usage.PeakMemoryMB > memoryLeakThresholdMB {
		return &types.PerformanceAnomaly{
			Kind:     types.PerfAnomalyMemoryLeak,
			Baseline: 1,
			Observed: result.Usage.PeakMemoryMB,
			Severity: minFloat(result.Usage.PeakMemoryMB/memoryLeakThresholdMB, 1.0),
		}
	}

	return nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Findings converts the campaign's unique crashes into Finding records: one
// CrashProne finding per deduplicated crash.
func (d *Driver) Findings(result *types.FuzzingResult) []*types.Finding {
	var findings []*types.Finding
	for _, crash := range result.UniqueCrashes {
		findings = append(findings, FindingForCrash(crash))
	}
	return findings
}
