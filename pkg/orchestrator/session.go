package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/kwality/kwality/pkg/types"
)

// registry is the RWMutex-protected session map: the Orchestrator is the
// sole writer (insert on start, mutate on progress, remove on completion);
// status queries and Cancel are readers/external callers.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*types.ValidationSession
	cancels  map[string]context.CancelFunc
}

func newRegistry() *registry {
	return &registry{
		sessions: make(map[string]*types.ValidationSession),
		cancels:  make(map[string]context.CancelFunc),
	}
}

func (r *registry) insert(session *types.ValidationSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ValidationID] = session
	r.cancels[session.ValidationID] = cancel
}

func (r *registry) remove(validationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, validationID)
	delete(r.cancels, validationID)
}

// get returns an immutable snapshot of the session for external readers.
func (r *registry) get(validationID string) (types.ValidationSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[validationID]
	if !ok {
		return types.ValidationSession{}, false
	}
	return s.Snapshot(), true
}

// cancel transitions a session to Cancelled and cancels its context, the
// next suspension point inside the running pipeline observes ctx.Err() and
// abandons the current phase, then runs Cleanup unconditionally.
func (r *registry) cancel(validationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.cancels[validationID]
	if !ok {
		return false
	}
	if s, ok := r.sessions[validationID]; ok {
		s.Status = types.StatusCancelled
	}
	cancel()
	return true
}

// setPhase records the current phase and recomputes the progress fraction
// as completed/len(PipelinePhases).
func (r *registry) setPhase(validationID string, phase types.Phase, completed []types.Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[validationID]
	if !ok {
		return
	}
	s.Progress.CurrentPhase = phase
	s.Progress.CompletedPhases = append([]types.Phase(nil), completed...)
	s.Progress.OverallFraction = float64(len(completed)) / float64(len(types.PipelinePhases))
}

func (r *registry) setEngineStatus(validationID, engine string, status types.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[validationID]
	if !ok {
		return
	}
	if s.EngineStatus == nil {
		s.EngineStatus = make(map[string]types.Status)
	}
	s.EngineStatus[engine] = status
}

func (r *registry) setStatus(validationID string, status types.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[validationID]; ok {
		s.Status = status
	}
}

func newSession(validationID, codebaseID string, globalTimeout time.Duration) *types.ValidationSession {
	now := time.Now()
	return &types.ValidationSession{
		ValidationID:        validationID,
		CodebaseID:          codebaseID,
		Status:              types.StatusPending,
		StartedAt:           now,
		EstimatedCompletion: now.Add(globalTimeout),
		Progress:            types.Progress{CurrentPhase: types.PhaseInitialization},
		EngineStatus:        make(map[string]types.Status),
	}
}
