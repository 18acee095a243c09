package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/herald/pkg/backend"
	"github.com/zen-systems/herald/pkg/engine"
	"github.com/zen-systems/herald/pkg/history"
)

func seededTracker() *history.Tracker {
	tracker := history.NewTracker()
	tracker.Record(&engine.Record{
		ID:           "rec-1",
		Agency:       "CodeAgency",
		Description:  "implement a widget",
		FinalOutcome: engine.FinalSuccess,
		Attempts: []engine.Attempt{
			{BackendID: "m1", Tier: backend.TierFree, Outcome: engine.AttemptSuccess, LatencyMs: 42},
		},
		FinishedAt: time.Now(),
	})
	return tracker
}

func TestHandleStats(t *testing.T) {
	srv := New(":0", seededTracker())

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var stats history.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 1, stats.Succeeded)
}

func TestHandleStats_MethodNotAllowed(t *testing.T) {
	srv := New(":0", seededTracker())

	req := httptest.NewRequest(http.MethodPost, "/stats", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleRecords(t *testing.T) {
	srv := New(":0", seededTracker())

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var records []engine.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "rec-1", records[0].ID)
	assert.Equal(t, engine.FinalSuccess, records[0].FinalOutcome)
}

func TestHandleHealth(t *testing.T) {
	srv := New(":0", history.NewTracker())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsEndpointRegistered(t *testing.T) {
	srv := New(":0", history.NewTracker())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}
