package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/metrics"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/errors"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/logger"
)

// Store is the process-wide registry of workflow runs. One orchestration is
// in flight per run id, so per-run writes are already serialized; the store
// mutex protects the registry itself and enforces terminal immutability.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*Run
	log  *logger.Logger
}

// NewStore creates an empty run registry.
func NewStore() *Store {
	return &Store{
		runs: make(map[string]*Run),
		log:  logger.Get().With("component", "workflow_store"),
	}
}

// Create registers a new PENDING run and returns its id.
func (s *Store) Create(query string) *Run {
	run := &Run{
		ID:           uuid.NewString(),
		Query:        query,
		Status:       StatusPending,
		StartedAt:    time.Now().UTC(),
		AgentResults: make(map[string]AgentResult),
	}

	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()

	metrics.WorkflowsInFlight.Inc()
	s.log.Infow("workflow run created", "run_id", run.ID)
	return run.clone()
}

// Get returns a copy of the run, or ErrNotFound for an unknown id.
func (s *Store) Get(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return run.clone(), nil
}

// MarkRunning transitions a PENDING run to RUNNING.
func (s *Store) MarkRunning(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return errors.ErrNotFound
	}
	if run.Status.Terminal() {
		return errors.Wrapf(errors.ErrRunFinalized, "run %s", id)
	}
	run.Status = StatusRunning
	return nil
}

// RecordResult stores one agent's outcome on an in-flight run. Results
// arriving after finalization are discarded and logged, never applied.
func (s *Store) RecordResult(id string, agentName string, res AgentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return errors.ErrNotFound
	}
	if run.Status.Terminal() {
		s.log.Warnw("discarding late agent result for finalized run",
			"run_id", id, "agent", agentName, "status", run.Status)
		return errors.Wrapf(errors.ErrRunFinalized, "run %s", id)
	}
	run.AgentResults[agentName] = res
	return nil
}

// Prune drops terminal runs finalized before the cutoff and returns how
// many were removed. In-flight runs are never pruned.
func (s *Store) Prune(olderThan time.Duration) int {
	cutoff := time.Now().UTC().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, run := range s.runs {
		if run.Status.Terminal() && run.FinishedAt != nil && run.FinishedAt.Before(cutoff) {
			delete(s.runs, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Infow("pruned finalized workflow runs", "removed", removed)
	}
	return removed
}

// Finalize moves a run to a terminal status. Finalizing an already-terminal
// run is rejected so a run never observes two terminal statuses.
func (s *Store) Finalize(id string, status Status) error {
	if !status.Terminal() {
		return errors.Wrapf(errors.ErrInvalidInput, "status %s is not terminal", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[id]
	if !ok {
		return errors.ErrNotFound
	}
	if run.Status.Terminal() {
		return errors.Wrapf(errors.ErrRunFinalized, "run %s", id)
	}

	now := time.Now().UTC()
	run.Status = status
	run.FinishedAt = &now

	metrics.WorkflowsInFlight.Dec()
	metrics.RecordWorkflowRun(string(status))
	s.log.Infow("workflow run finalized", "run_id", id, "status", status)
	return nil
}
