package engine

import (
	"time"

	"github.com/zen-systems/herald/pkg/backend"
	"github.com/zen-systems/herald/pkg/score"
)

// State names one phase of the execution state machine.
type State string

const (
	StatePending   State = "pending"
	StateSelecting State = "selecting"
	StateExecuting State = "executing"
	StateSucceeded State = "succeeded"
	StateExhausted State = "exhausted"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// AttemptOutcome classifies a single backend invocation.
type AttemptOutcome string

const (
	AttemptSuccess   AttemptOutcome = "success"
	AttemptTransient AttemptOutcome = "transient_failure"
	AttemptFatal     AttemptOutcome = "fatal_failure"
	AttemptCancelled AttemptOutcome = "cancelled"
)

// FinalOutcome classifies a finished task.
type FinalOutcome string

const (
	FinalSuccess   FinalOutcome = "success"
	FinalExhausted FinalOutcome = "exhausted"
	FinalFatal     FinalOutcome = "fatal_failure"
	FinalCancelled FinalOutcome = "cancelled"
)

// Attempt is one backend invocation within a task. Attempts are strictly
// ordered; attempt N+1 never starts before attempt N resolves.
type Attempt struct {
	BackendID   string         `json:"backend_id"`
	Tier        backend.Tier   `json:"tier"`
	StartedAt   time.Time      `json:"started_at"`
	Outcome     AttemptOutcome `json:"outcome"`
	ErrorDetail string         `json:"error_detail,omitempty"`
	LatencyMs   int64          `json:"latency_ms"`
}

// Transition is one observable state change. Collecting transitions on the
// record lets callers follow progress without subscribing to an event bus.
type Transition struct {
	State     State     `json:"state"`
	BackendID string    `json:"backend_id,omitempty"`
	At        time.Time `json:"at"`
	Detail    string    `json:"detail,omitempty"`
}

// Record is the complete execution trail for one task. Exactly one record
// is finalized per submitted task, success or not.
type Record struct {
	ID           string       `json:"id"`
	Agency       string       `json:"agency,omitempty"`
	Task         score.Task   `json:"-"`
	Description  string       `json:"description"`
	Attempts     []Attempt    `json:"attempts"`
	Transitions  []Transition `json:"transitions,omitempty"`
	FinalOutcome FinalOutcome `json:"final_outcome"`
	FallbackUsed bool         `json:"fallback_used"`
	ResultText   string       `json:"result_text,omitempty"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
}

// TotalLatencyMs sums the latencies of all attempts.
func (r *Record) TotalLatencyMs() int64 {
	var total int64
	for _, a := range r.Attempts {
		total += a.LatencyMs
	}
	return total
}
