package history

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/herald/pkg/backend"
	"github.com/zen-systems/herald/pkg/engine"
)

func record(outcome engine.FinalOutcome, agency string, fallback bool, attempts ...engine.Attempt) *engine.Record {
	return &engine.Record{
		ID:           "rec-" + string(outcome),
		Agency:       agency,
		Attempts:     attempts,
		FinalOutcome: outcome,
		FallbackUsed: fallback,
		FinishedAt:   time.Now(),
	}
}

func attempt(tier backend.Tier, latency int64) engine.Attempt {
	return engine.Attempt{BackendID: "m", Tier: tier, LatencyMs: latency}
}

func TestStats_Derivation(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(record(engine.FinalSuccess, "CodeAgency", false, attempt(backend.TierFree, 100)))
	tracker.Record(record(engine.FinalSuccess, "CodeAgency", true,
		attempt(backend.TierPaid, 200), attempt(backend.TierFree, 100)))
	tracker.Record(record(engine.FinalExhausted, "ResearchAgency", false, attempt(backend.TierFree, 400)))
	tracker.Record(record(engine.FinalFatal, "ResearchAgency", false, attempt(backend.TierPaid, 200)))

	stats := tracker.Stats()

	assert.Equal(t, 4, stats.TotalTasks)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Exhausted)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Cancelled)
	assert.InDelta(t, 0.5, stats.SuccessRate, 0.001)
	assert.Equal(t, 1, stats.FallbackUsed)
	assert.InDelta(t, 0.25, stats.FallbackRate, 0.001)
	assert.Equal(t, map[string]int{"free": 3, "paid": 2}, stats.TierUsage)
	assert.Equal(t, map[string]int{"CodeAgency": 2, "ResearchAgency": 2}, stats.TasksByAgency)
	assert.InDelta(t, 200.0, stats.MeanLatencyMs, 0.001)
}

func TestStats_Empty(t *testing.T) {
	stats := NewTracker().Stats()

	assert.Zero(t, stats.TotalTasks)
	assert.Zero(t, stats.SuccessRate)
	assert.Zero(t, stats.MeanLatencyMs)
	assert.NotNil(t, stats.TierUsage)
	assert.NotNil(t, stats.TasksByAgency)
}

func TestRecord_IgnoresNil(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(nil)
	assert.Zero(t, tracker.Len())
}

func TestAll_ReturnsCopy(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(record(engine.FinalSuccess, "A", false))

	got := tracker.All()
	require.Len(t, got, 1)
	got[0] = nil
	require.NotNil(t, tracker.All()[0])
}

func TestPrune(t *testing.T) {
	tracker := NewTracker()

	old := record(engine.FinalSuccess, "A", false)
	old.FinishedAt = time.Now().Add(-2 * time.Hour)
	tracker.Record(old)
	tracker.Record(record(engine.FinalSuccess, "A", false))

	removed := tracker.Prune(time.Now().Add(-time.Hour))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, tracker.Len())
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tracker.Record(record(engine.FinalSuccess, "A", false, attempt(backend.TierFree, 1)))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = tracker.Stats()
				_ = tracker.All()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, tracker.Len())
}
