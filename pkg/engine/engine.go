// Package engine drives one task to completion: it ranks backends, invokes
// the top candidate, and falls back through the remaining candidates on
// transient failures. Candidates are never tried in parallel.
package engine

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/zen-systems/herald/pkg/backend"
	"github.com/zen-systems/herald/pkg/invoke"
	"github.com/zen-systems/herald/pkg/metrics"
	"github.com/zen-systems/herald/pkg/score"
)

// Invoker performs one backend round trip. invoke.Pool satisfies this.
type Invoker interface {
	Invoke(ctx context.Context, b backend.Backend, prompt string) (*invoke.Response, error)
}

// Recorder receives the finalized record for every task.
type Recorder interface {
	Record(*Record)
}

const (
	defaultAttemptTimeout = 60 * time.Second
	defaultBaseBackoff    = 200 * time.Millisecond
	defaultMaxBackoff     = 2 * time.Second
)

// Coordinator executes tasks against a backend registry with tiered
// fallback. It is safe for concurrent use; each Execute call runs its own
// sequential attempt chain.
type Coordinator struct {
	registry       *backend.Registry
	invoker        Invoker
	recorder       Recorder
	agency         string
	attemptTimeout time.Duration
	baseBackoff    time.Duration
	maxBackoff     time.Duration
	debug          bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithAttemptTimeout bounds each individual backend invocation.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.attemptTimeout = d
		}
	}
}

// WithBackoff sets the delay bounds applied between fallback candidates.
func WithBackoff(base, max time.Duration) Option {
	return func(c *Coordinator) {
		if base > 0 {
			c.baseBackoff = base
		}
		if max >= base {
			c.maxBackoff = max
		}
	}
}

// WithAgency tags records with the owning work-group name.
func WithAgency(name string) Option {
	return func(c *Coordinator) {
		c.agency = name
	}
}

// WithDebug enables diagnostic logging.
func WithDebug(debug bool) Option {
	return func(c *Coordinator) {
		c.debug = debug
	}
}

// NewCoordinator creates a coordinator. The recorder may be nil, in which
// case records are only returned to the caller.
func NewCoordinator(registry *backend.Registry, invoker Invoker, recorder Recorder, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:       registry,
		invoker:        invoker,
		recorder:       recorder,
		attemptTimeout: defaultAttemptTimeout,
		baseBackoff:    defaultBaseBackoff,
		maxBackoff:     defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs the task through the fallback chain. It returns the record
// together with any terminal error so callers always have the full attempt
// trail. Scorer errors (empty registry) propagate before any attempt is
// made and produce no record.
func (c *Coordinator) Execute(ctx context.Context, task score.Task) (*Record, error) {
	rec := &Record{
		ID:          uuid.NewString(),
		Agency:      c.agency,
		Task:        task,
		Description: task.Description,
		StartedAt:   time.Now(),
	}
	c.transition(rec, StatePending, "", "task submitted")
	c.transition(rec, StateSelecting, "", "ranking candidates")

	snap := c.registry.Snapshot()
	candidates, err := score.Rank(task, snap)
	if err != nil {
		return nil, err
	}

	for i, cand := range candidates {
		b, ok := snap.Get(cand.BackendID)
		if !ok {
			// Snapshot and ranking come from the same view, so this
			// cannot happen unless the scorer invents an id.
			continue
		}

		if i > 0 {
			if err := sleepWithContext(ctx, c.backoff(i-1)); err != nil {
				return c.finalizeCancelled(rec, err)
			}
		}

		c.transition(rec, StateExecuting, b.ID, "invoking backend")
		started := time.Now()

		attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
		resp, invokeErr := c.invoker.Invoke(attemptCtx, b, task.Description)
		cancel()

		latency := time.Since(started)
		attempt := Attempt{
			BackendID: b.ID,
			Tier:      b.Tier,
			StartedAt: started,
			LatencyMs: latency.Milliseconds(),
		}

		if invokeErr == nil {
			attempt.Outcome = AttemptSuccess
			rec.Attempts = append(rec.Attempts, attempt)
			rec.ResultText = resp.Text
			rec.FallbackUsed = len(rec.Attempts) > 1
			metrics.RecordAttempt(b.ID, string(b.Tier), string(AttemptSuccess), latency)
			c.finalize(rec, FinalSuccess, StateSucceeded)
			return rec, nil
		}

		attempt.ErrorDetail = invokeErr.Error()

		// Caller cancellation aborts the current attempt and the task.
		if ctx.Err() != nil {
			attempt.Outcome = AttemptCancelled
			rec.Attempts = append(rec.Attempts, attempt)
			metrics.RecordAttempt(b.ID, string(b.Tier), string(AttemptCancelled), latency)
			return c.finalizeCancelled(rec, ctx.Err())
		}

		if invoke.IsTransient(invokeErr) {
			attempt.Outcome = AttemptTransient
			rec.Attempts = append(rec.Attempts, attempt)
			metrics.RecordAttempt(b.ID, string(b.Tier), string(AttemptTransient), latency)
			if c.debug {
				log.Printf("[engine] backend %s transient failure, falling back: %v", b.ID, invokeErr)
			}
			continue
		}

		attempt.Outcome = AttemptFatal
		rec.Attempts = append(rec.Attempts, attempt)
		metrics.RecordAttempt(b.ID, string(b.Tier), string(AttemptFatal), latency)
		c.finalize(rec, FinalFatal, StateFailed)
		return rec, &FatalError{Record: rec, Err: invokeErr}
	}

	c.finalize(rec, FinalExhausted, StateExhausted)
	return rec, &ExhaustedError{Record: rec}
}

func (c *Coordinator) finalize(rec *Record, outcome FinalOutcome, state State) {
	rec.FinalOutcome = outcome
	rec.FinishedAt = time.Now()
	c.transition(rec, state, "", "")
	metrics.RecordTask(string(outcome), rec.FallbackUsed)
	if c.recorder != nil {
		c.recorder.Record(rec)
	}
}

func (c *Coordinator) finalizeCancelled(rec *Record, cause error) (*Record, error) {
	c.finalize(rec, FinalCancelled, StateCancelled)
	return rec, &CancelledError{Record: rec, Err: cause}
}

func (c *Coordinator) transition(rec *Record, state State, backendID, detail string) {
	rec.Transitions = append(rec.Transitions, Transition{
		State:     state,
		BackendID: backendID,
		At:        time.Now(),
		Detail:    detail,
	})
	if c.debug {
		log.Printf("[engine] task %s -> %s %s", rec.ID, state, backendID)
	}
}

// backoff doubles the base delay per consumed candidate, capped at max.
func (c *Coordinator) backoff(step int) time.Duration {
	d := c.baseBackoff
	for i := 0; i < step; i++ {
		d *= 2
		if d >= c.maxBackoff {
			return c.maxBackoff
		}
	}
	if d > c.maxBackoff {
		return c.maxBackoff
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
