// Package history keeps the append-only record of task executions and
// derives aggregate routing statistics from it.
package history

import (
	"sync"
	"time"

	"github.com/zen-systems/herald/pkg/engine"
)

// Stats is the JSON-serializable aggregate view exposed for external
// observability tooling.
type Stats struct {
	TotalTasks    int            `json:"total_tasks"`
	Succeeded     int            `json:"succeeded"`
	Exhausted     int            `json:"exhausted"`
	Failed        int            `json:"failed"`
	Cancelled     int            `json:"cancelled"`
	SuccessRate   float64        `json:"success_rate"`
	FallbackUsed  int            `json:"fallback_used"`
	FallbackRate  float64        `json:"fallback_rate"`
	TierUsage     map[string]int `json:"tier_usage"`
	TasksByAgency map[string]int `json:"tasks_by_agency"`
	MeanLatencyMs float64        `json:"mean_latency_ms"`
	LastUpdated   time.Time      `json:"last_updated"`
}

// Tracker stores finalized execution records. Appends never fail and
// readers always see a consistent snapshot.
type Tracker struct {
	mu      sync.RWMutex
	records []*engine.Record
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record appends a finalized record. Satisfies engine.Recorder.
func (t *Tracker) Record(rec *engine.Record) {
	if rec == nil {
		return
	}
	t.mu.Lock()
	t.records = append(t.records, rec)
	t.mu.Unlock()
}

// All returns a copy of the stored records in append order.
func (t *Tracker) All() []*engine.Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*engine.Record, len(t.records))
	copy(out, t.records)
	return out
}

// Len returns the number of stored records.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Prune drops records finalized before the cutoff and returns how many
// were removed.
func (t *Tracker) Prune(before time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.records[:0]
	for _, rec := range t.records {
		if !rec.FinishedAt.Before(before) {
			kept = append(kept, rec)
		}
	}
	removed := len(t.records) - len(kept)
	t.records = kept
	return removed
}

// Stats derives aggregate metrics from the stored records.
func (t *Tracker) Stats() Stats {
	records := t.All()

	stats := Stats{
		TierUsage:     make(map[string]int),
		TasksByAgency: make(map[string]int),
		LastUpdated:   time.Now(),
	}

	var totalLatency int64
	var attemptCount int

	for _, rec := range records {
		stats.TotalTasks++
		switch rec.FinalOutcome {
		case engine.FinalSuccess:
			stats.Succeeded++
		case engine.FinalExhausted:
			stats.Exhausted++
		case engine.FinalFatal:
			stats.Failed++
		case engine.FinalCancelled:
			stats.Cancelled++
		}
		if rec.FallbackUsed {
			stats.FallbackUsed++
		}
		if rec.Agency != "" {
			stats.TasksByAgency[rec.Agency]++
		}
		for _, attempt := range rec.Attempts {
			stats.TierUsage[string(attempt.Tier)]++
			totalLatency += attempt.LatencyMs
			attemptCount++
		}
	}

	if stats.TotalTasks > 0 {
		stats.SuccessRate = float64(stats.Succeeded) / float64(stats.TotalTasks)
		stats.FallbackRate = float64(stats.FallbackUsed) / float64(stats.TotalTasks)
	}
	if attemptCount > 0 {
		stats.MeanLatencyMs = float64(totalLatency) / float64(attemptCount)
	}
	return stats
}
