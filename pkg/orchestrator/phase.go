package orchestrator

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kwality/kwality/pkg/errs"
	"github.com/kwality/kwality/pkg/events"
	"github.com/kwality/kwality/pkg/log"
	"github.com/kwality/kwality/pkg/metrics"
	"github.com/kwality/kwality/pkg/types"
)

// runPhase drives one pipeline phase: it checks the cooperative-cancellation
// suspension point, derives a per-phase timeout context when the phase has
// one configured, runs fn, and records the outcome into both the session
// registry and the assembled ValidationResult.
//
// A phase is never charged its own finding when the *global* context is
// what ended it (timeout or cancellation) — that is surfaced exactly once,
// after the whole pipeline unwinds, by Validate itself. Only a genuine
// per-phase timeout (the phase's own, tighter deadline firing while the
// global budget still has room) produces a PhaseTimeout finding here.
func (o *Orchestrator) runPhase(
	ctx context.Context,
	validationID string,
	phase types.Phase,
	completed *[]types.Phase,
	result *types.ValidationResult,
	fn func(context.Context) error,
) error {
	logger := log.WithPhase(string(phase))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	pctx := ctx
	if timeout, ok := phaseTimeouts[phase]; ok {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	o.registry.setEngineStatus(validationID, string(phase), types.StatusRunning)
	o.publish(validationID, events.KindPhaseStarted, string(phase)+" started")
	timer := metrics.NewTimer()

	findingsBefore := len(result.Findings)
	err := fn(pctx)

	timer.ObserveDurationVec(metrics.ValidationPhaseDuration, string(phase))

	for _, f := range result.Findings[findingsBefore:] {
		o.publish(validationID, events.KindFindingDetected, string(phase)+": "+f.Title)
	}

	globalEnded := ctx.Err() != nil
	phaseTimedOut := !globalEnded && errors.Is(pctx.Err(), context.DeadlineExceeded)

	switch {
	case globalEnded:
		o.registry.setEngineStatus(validationID, string(phase), types.StatusFailed)
		return ctx.Err()
	case phaseTimedOut:
		err = errs.PhaseTimeout(string(phase)+" exceeded its phase timeout", err)
	}

	if err != nil {
		kind, _ := errs.KindOf(err)
		severity := severityForKind(kind)
		result.Findings = append(result.Findings, &types.Finding{
			ID:          uuid.NewString(),
			Kind:        types.FindingRuntimeError,
			Severity:    severity,
			Title:       string(phase) + " phase error",
			Description: err.Error(),
			Confidence:  1,
		})
		o.registry.setEngineStatus(validationID, string(phase), types.StatusFailed)
		o.metricsSink.RecordError(string(kind), err.Error(), severity)
		o.publish(validationID, events.KindPhaseFailed, string(phase)+" failed: "+err.Error())
	} else {
		o.registry.setEngineStatus(validationID, string(phase), types.StatusCompleted)
		o.publish(validationID, events.KindPhaseCompleted, string(phase)+" completed")
	}

	*completed = append(*completed, phase)
	o.registry.setPhase(validationID, phase, *completed)

	logger.Debug().Str("validation_id", validationID).Bool("ok", err == nil).Msg("phase complete")

	return err
}
