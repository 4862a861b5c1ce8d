package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kwality/kwality/pkg/aggregator"
	"github.com/kwality/kwality/pkg/config"
	"github.com/kwality/kwality/pkg/errs"
	"github.com/kwality/kwality/pkg/events"
	"github.com/kwality/kwality/pkg/fuzz"
	"github.com/kwality/kwality/pkg/log"
	"github.com/kwality/kwality/pkg/metrics"
	"github.com/kwality/kwality/pkg/performance"
	"github.com/kwality/kwality/pkg/sandbox"
	"github.com/kwality/kwality/pkg/security"
	"github.com/kwality/kwality/pkg/storage"
	"github.com/kwality/kwality/pkg/types"
)

// phaseTimeouts is the design's fixed per-phase timeout schedule. A phase
// absent from this map is bounded only by the global validation timeout.
var phaseTimeouts = map[types.Phase]time.Duration{
	types.PhaseSecurityScanning:     60 * time.Second,
	types.PhaseRuntimeExecution:     120 * time.Second,
	types.PhasePerformanceProfiling: 90 * time.Second,
	types.PhaseFuzzTesting:          180 * time.Second,
}

// Orchestrator runs the fixed eight-phase validation pipeline, owns the
// session registry, and binds every other engine into one Validate call.
// It generalizes the teacher's Manager: one RWMutex-guarded map of live
// state (sessions instead of cluster members), mutated only by its owner.
type Orchestrator struct {
	cfg         *config.Config
	sandbox     sandbox.Driver
	security    *security.Observer
	performance *performance.Profiler
	fuzzer      *fuzz.Driver
	metricsSink *metrics.Sink
	broker      *events.Broker

	registry *registry
}

// New wires the Orchestrator from its configuration and the Sandbox
// Driver it drives every other engine through. A nil metricsSink is
// replaced with a fresh, unshared Sink so Validate never nil-derefs it.
// A nil broker leaves event publication disabled: Validate runs exactly
// the same, it just has no progress stream for a caller to subscribe to. A
// nil corpusStore leaves every fuzz campaign cold, which is the default.
func New(cfg *config.Config, sandboxDriver sandbox.Driver, securityObserver *security.Observer, performanceProfiler *performance.Profiler, metricsSink *metrics.Sink, broker *events.Broker, corpusStore storage.CorpusStore) *Orchestrator {
	if cfg == nil {
		cfg = config.Default()
	}
	if metricsSink == nil {
		metricsSink = metrics.NewSink()
	}
	fuzzer := fuzz.New(&cfg.Fuzzing, sandboxDriver)
	if corpusStore != nil {
		fuzzer.UseCorpusStore(corpusStore)
	}
	return &Orchestrator{
		cfg:         cfg,
		sandbox:     sandboxDriver,
		security:    securityObserver,
		performance: performanceProfiler,
		fuzzer:      fuzzer,
		metricsSink: metricsSink,
		broker:      broker,
		registry:    newRegistry(),
	}
}

// publish is a no-op when the Orchestrator was built without a broker.
func (o *Orchestrator) publish(validationID string, kind events.Kind, message string) {
	if o.broker == nil {
		return
	}
	o.broker.Publish(&events.Event{
		Kind:         kind,
		ValidationID: validationID,
		Message:      message,
	})
}

// Status returns an immutable snapshot of a live validation's session, or
// false if validationID names no in-flight (or already-terminal) run.
func (o *Orchestrator) Status(validationID string) (types.ValidationSession, bool) {
	return o.registry.get(validationID)
}

// Cancel cooperatively cancels an in-flight validation: the currently
// executing phase is abandoned at its next suspension point, then Cleanup
// runs unconditionally. Returns false if validationID is not in-flight.
func (o *Orchestrator) Cancel(validationID string) bool {
	return o.registry.cancel(validationID)
}

// Validate drives one codebase through the full pipeline and returns its
// externalized ValidationResult. It always returns a non-nil result, even
// on a global timeout, cancellation, or a fatal setup error: the error
// return is reserved for bookkeeping failures the caller cannot recover
// from (per spec.md §7, these propagate and the session is marked Failed).
func (o *Orchestrator) Validate(ctx context.Context, codebase *types.Codebase) (*types.ValidationResult, error) {
	validationID := uuid.NewString()
	globalTimeout := o.cfg.GlobalTimeout()

	session := newSession(validationID, codebase.ID, globalTimeout)
	runCtx, cancel := context.WithTimeout(ctx, globalTimeout)
	defer cancel()
	o.registry.insert(session, cancel)
	o.registry.setStatus(validationID, types.StatusRunning)

	logger := log.WithValidationID(validationID)
	logger.Info().Str("codebase_id", codebase.ID).Msg("validation started")
	o.publish(validationID, events.KindValidationStarted, "validation started")

	result := &types.ValidationResult{
		ValidationID: validationID,
		CodebaseID:   codebase.ID,
		Status:       types.StatusRunning,
		StartedAt:    session.StartedAt,
		Metadata:     map[string]string{},
	}

	var completed []types.Phase
	var env *types.Environment
	var execResult *sandbox.ExecutionResult
	var entrypoint []string
	fatal := false

	o.runPhase(runCtx, validationID, types.PhaseInitialization, &completed, result, func(context.Context) error {
		return nil
	})

	o.runPhase(runCtx, validationID, types.PhaseEnvironmentSetup, &completed, result, func(pctx context.Context) error {
		if err := withRetry(pctx, o.cfg.Validation.Retry, func() error { return o.sandbox.Connect(pctx) }); err != nil {
			fatal = true
			return err
		}
		e, err := o.sandbox.CreateEnvironment(pctx, codebase)
		if err != nil {
			fatal = true
			return err
		}
		env = e
		entrypoint = sandbox.SelectEntrypoint(codebase)
		return nil
	})

	o.runPhase(runCtx, validationID, types.PhaseSecurityScanning, &completed, result, func(pctx context.Context) error {
		result.Security = o.security.Analyze(pctx, codebase, nil)
		return nil
	})

	o.runPhase(runCtx, validationID, types.PhaseRuntimeExecution, &completed, result, func(pctx context.Context) error {
		if env == nil {
			return nil
		}
		o.metricsSink.RecordContainerEvent(types.ContainerEvent{Kind: types.ContainerEventCreated})
		o.publish(validationID, events.KindContainerLifecycle, "container created")

		err := withRetry(pctx, o.cfg.Validation.Retry, func() error {
			r, e := o.sandbox.Execute(pctx, env, entrypoint)
			execResult = r
			return e
		})
		if err != nil {
			o.metricsSink.RecordContainerEvent(types.ContainerEvent{Kind: types.ContainerEventFailed})
			o.publish(validationID, events.KindContainerLifecycle, "container failed: "+err.Error())
			return err
		}
		o.metricsSink.RecordContainerEvent(types.ContainerEvent{Kind: types.ContainerEventDestroyed, Lifetime: execResult.Duration})
		o.publish(validationID, events.KindContainerLifecycle, "container destroyed")

		result.Security = o.security.Analyze(pctx, codebase, execResult)

		if len(codebase.Files) == 0 {
			result.Findings = append(result.Findings, noRunnableCodeFinding())
		} else if crash := fuzz.ClassifyCrash(execResult.ExitCode, execResult.Stderr); crash != nil {
			result.Findings = append(result.Findings, fuzz.FindingForCrash(crash))
		}

		return nil
	})

	o.runPhase(runCtx, validationID, types.PhasePerformanceProfiling, &completed, result, func(pctx context.Context) error {
		if execResult == nil {
			return nil
		}
		perf := o.performance.Collect(pctx, execResult)
		result.Performance = perf
		o.metricsSink.RecordPerformance(perf.CPUUsagePercent, perf.FinalMemoryMB, float64(perf.IO.ReadBytes+perf.IO.WriteBytes), 0)
		return nil
	})

	o.runPhase(runCtx, validationID, types.PhaseFuzzTesting, &completed, result, func(pctx context.Context) error {
		if !o.cfg.Fuzzing.Enabled || env == nil {
			return nil
		}
		fr, err := o.fuzzer.Run(pctx, env, entrypoint)
		if err != nil {
			return err
		}
		result.Fuzzing = fr
		result.Findings = append(result.Findings, o.fuzzer.Findings(fr)...)
		return nil
	})

	o.runPhase(runCtx, validationID, types.PhaseResultAggregation, &completed, result, func(context.Context) error {
		if result.Security != nil {
			result.Findings = append(result.Findings, o.security.Findings(result.Security)...)
		}
		if result.Performance != nil {
			result.Findings = append(result.Findings, o.performance.Findings(result.Performance)...)
		}
		aggregator.Aggregate(result)
		return nil
	})

	// Cleanup runs unconditionally, on a fresh context: the global timeout
	// that may have just fired must never prevent teardown.
	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if env != nil {
		if err := o.sandbox.Cleanup(cleanupCtx, env); err != nil {
			logger.Warn().Err(err).Msg("cleanup reported a non-fatal error")
		}
	}
	cleanupCancel()
	completed = append(completed, types.PhaseCleanup)
	o.registry.setPhase(validationID, types.PhaseCleanup, completed)

	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.Status = types.StatusTimeout
		result.Findings = append(result.Findings, timeoutFinding())
	case errors.Is(runCtx.Err(), context.Canceled):
		result.Status = types.StatusCancelled
	case fatal:
		result.Status = types.StatusFailed
	default:
		result.Status = types.StatusCompleted
	}

	o.registry.setPhase(validationID, types.PhaseCompleted, completed)
	o.registry.setStatus(validationID, result.Status)
	o.metricsSink.RecordValidation(result.Duration, result.Status == types.StatusCompleted, result.OverallScore, perEngineScores(result))
	o.registry.remove(validationID)

	logger.Info().
		Str("status", string(result.Status)).
		Float64("overall_score", result.OverallScore).
		Dur("duration", result.Duration).
		Msg("validation finished")

	if result.Status == types.StatusCompleted {
		o.publish(validationID, events.KindValidationCompleted, "validation completed")
	} else {
		o.publish(validationID, events.KindValidationFailed, "validation ended: "+string(result.Status))
	}

	return result, nil
}

func perEngineScores(result *types.ValidationResult) map[string]float64 {
	scores := map[string]float64{"overall": result.OverallScore}
	if result.Security != nil {
		scores["security"] = result.Security.Score
	}
	return scores
}

func noRunnableCodeFinding() *types.Finding {
	return &types.Finding{
		ID:          uuid.NewString(),
		Kind:        types.FindingUnexpectedBehavior,
		Severity:    types.SeverityLow,
		Title:       "No Runnable Code Detected",
		Description: "the codebase contained no files; the sandbox entrypoint fallback ran and exited non-zero",
		Confidence:  1,
	}
}

func timeoutFinding() *types.Finding {
	return &types.Finding{
		ID:          uuid.NewString(),
		Kind:        types.FindingRuntimeError,
		Severity:    types.SeverityHigh,
		Title:       "Validation Timeout",
		Description: "the validation exceeded its configured global timeout and was abandoned",
		Confidence:  1,
	}
}

// severityForKind maps an error-taxonomy Kind to the Finding severity a
// phase error surfaces with.
func severityForKind(kind errs.Kind) types.Severity {
	switch kind {
	case errs.KindRuntimeUnavailable, errs.KindConfigError:
		return types.SeverityCritical
	case errs.KindWorkspaceError, errs.KindPhaseTimeout, errs.KindGlobalTimeout:
		return types.SeverityHigh
	default:
		return types.SeverityMedium
	}
}
