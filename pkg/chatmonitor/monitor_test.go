package chatmonitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCountsByStage(t *testing.T) {
	m := New(10, 0)
	m.Record(Event{Stage: StageInbound, Status: StatusOK, Sender: "1"})
	m.Record(Event{Stage: StageOutbound, Status: StatusOK, Simulated: true})
	m.Record(Event{Stage: StageOutbound, Status: StatusError, Error: "boom"})
	m.Record(Event{Stage: StageRoute, Status: StatusSkipped})

	stats := m.GetStats()
	assert.EqualValues(t, 1, stats.TotalInbound)
	assert.EqualValues(t, 1, stats.TotalOutbound)
	assert.EqualValues(t, 1, stats.TotalSimulated)
	assert.EqualValues(t, 1, stats.TotalErrors)
	assert.EqualValues(t, 1, stats.TotalSkipped)
	require.Len(t, stats.RecentEvents, 4)
	assert.Equal(t, "1", stats.RecentEvents[0].Sender)
}

func TestRingBufferKeepsNewest(t *testing.T) {
	m := New(3, 0)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		m.Record(Event{Stage: StageInbound, Sender: s})
	}
	stats := m.GetStats()
	require.Len(t, stats.RecentEvents, 3)
	assert.Equal(t, "c", stats.RecentEvents[0].Sender)
	assert.Equal(t, "e", stats.RecentEvents[2].Sender)
	assert.EqualValues(t, 5, stats.TotalInbound)
}

func TestTTLHidesOldEvents(t *testing.T) {
	m := New(5, time.Minute)
	m.Record(Event{Stage: StageInbound, Sender: "old", Timestamp: time.Now().UTC().Add(-2 * time.Minute)})
	m.Record(Event{Stage: StageInbound, Sender: "new"})

	stats := m.GetStats()
	require.Len(t, stats.RecentEvents, 1)
	assert.Equal(t, "new", stats.RecentEvents[0].Sender)
}

func TestNilMonitorIsSafe(t *testing.T) {
	var m *Monitor
	m.Record(Event{Stage: StageInbound})
	assert.Empty(t, m.GetStats().RecentEvents)
}
