package workflow

import (
	"time"
)

// Status is the lifecycle state of a workflow run.
// Valid transitions: PENDING → RUNNING → {COMPLETED | PARTIAL | FAILED}.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPartial   Status = "partial"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusFailed:
		return true
	}
	return false
}

// AgentResult is the recorded outcome of a single agent within a run.
type AgentResult struct {
	Success bool        `json:"success"`
	Reason  string      `json:"reason,omitempty"`
	Error   string      `json:"error,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// Run is a tracked, asynchronous multi-agent execution. Once a run reaches
// a terminal status it is immutable; reads of a terminal run always return
// the same value.
type Run struct {
	ID           string                 `json:"run_id"`
	Query        string                 `json:"query"`
	Status       Status                 `json:"status"`
	StartedAt    time.Time              `json:"started_at"`
	FinishedAt   *time.Time             `json:"finished_at,omitempty"`
	AgentResults map[string]AgentResult `json:"agent_results"`
}

// clone returns a deep enough copy for safe concurrent reads.
func (r *Run) clone() *Run {
	cp := *r
	cp.AgentResults = make(map[string]AgentResult, len(r.AgentResults))
	for name, res := range r.AgentResults {
		cp.AgentResults[name] = res
	}
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		cp.FinishedAt = &t
	}
	return &cp
}
