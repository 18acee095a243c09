package bus

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndPending(t *testing.T) {
	b := New()

	id, err := b.Send("CodeAgency", "ResearchAgency", "request", PriorityMedium, map[string]string{"q": "compare caches"})
	require.NoError(t, err)
	assert.Contains(t, id, "msg-")

	pending := b.Pending("ResearchAgency")
	require.Len(t, pending, 1)
	assert.Equal(t, "CodeAgency", pending[0].From)
	assert.Equal(t, StatusPending, pending[0].Status)

	assert.Empty(t, b.Pending("CodeAgency"))
}

func TestPending_HighPriorityFirst(t *testing.T) {
	b := New()

	_, err := b.Send("a", "target", "note", PriorityLow, nil)
	require.NoError(t, err)
	_, err = b.Send("a", "target", "note", PriorityMedium, nil)
	require.NoError(t, err)
	highID, err := b.Send("a", "target", "alert", PriorityHigh, nil)
	require.NoError(t, err)

	pending := b.Pending("target")
	require.Len(t, pending, 3)
	assert.Equal(t, highID, pending[0].ID)
	assert.Equal(t, PriorityLow, pending[1].Priority)
	assert.Equal(t, PriorityMedium, pending[2].Priority)
}

func TestAcknowledge(t *testing.T) {
	b := New()

	id, err := b.Send("a", "target", "note", PriorityMedium, nil)
	require.NoError(t, err)

	require.NoError(t, b.Acknowledge(id))
	assert.Empty(t, b.Pending("target"))

	// Idempotent.
	require.NoError(t, b.Acknowledge(id))

	assert.Error(t, b.Acknowledge("msg-missing"))
}

func TestBroadcast(t *testing.T) {
	b := New()

	ids, err := b.Broadcast("orchestrator", []string{"CodeAgency", "ResearchAgency"}, "announcement", "release cut")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	assert.Len(t, b.Pending("CodeAgency"), 1)
	assert.Len(t, b.Pending("ResearchAgency"), 1)
}

func TestSend_DefaultsPriority(t *testing.T) {
	b := New()

	_, err := b.Send("a", "target", "note", "", nil)
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, b.Pending("target")[0].Priority)
}

func TestQueueFilePersistence(t *testing.T) {
	dir := t.TempDir()
	b := New(WithRegistryDir(dir))

	id, err := b.Send("CodeAgency", "orchestrator", "handoff", PriorityMedium, map[string]int{"sub_tasks": 3})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "message_queue.json"))
	require.NoError(t, err)

	var persisted queueFile
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, "1.0", persisted.Version)
	require.Len(t, persisted.Messages, 1)
	assert.Equal(t, id, persisted.Messages[0].ID)

	require.NoError(t, b.Acknowledge(id))

	data, err = os.ReadFile(filepath.Join(dir, "message_queue.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, StatusAcknowledged, persisted.Messages[0].Status)
	assert.NotNil(t, persisted.Messages[0].AcknowledgedAt)
}
