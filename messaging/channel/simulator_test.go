package channel

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/AzielCF/az-estate/pkg/chatmonitor"
	"github.com/AzielCF/az-estate/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSimulator(t *testing.T, logger *recordingLogger) (Dispatcher, *eventbus.Bus, *chatmonitor.Monitor) {
	t.Helper()
	bus := eventbus.New(8)
	t.Cleanup(bus.Close)
	monitor := chatmonitor.New(16, 0)

	d, err := NewDispatcher(Options{Simulation: true, Bus: bus, Logger: logger, Monitor: monitor})
	require.NoError(t, err)
	return d, bus, monitor
}

func TestSimulatorPublishesAndLogs(t *testing.T) {
	logger := &recordingLogger{}
	d, bus, monitor := newTestSimulator(t, logger)
	ch, cancel := bus.Subscribe(TopicOutbound)
	defer cancel()

	res, err := d.Send(context.Background(), Text{To: "2348012345678", Body: "hello"})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.True(t, strings.HasPrefix(res.ProviderMessageID, "sim-"))

	select {
	case env := <-ch:
		msg, ok := env.Payload.(SimulatedMessage)
		require.True(t, ok)
		assert.Equal(t, res.ProviderMessageID, msg.ProviderMessageID)
		assert.Equal(t, "2348012345678", msg.To)
		assert.Equal(t, "text", msg.Payload.Type)
	case <-time.After(time.Second):
		t.Fatal("no simulated message published")
	}

	entries := logger.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Simulated)
	assert.Equal(t, "hello", entries[0].Content)

	stats := monitor.GetStats()
	assert.EqualValues(t, 1, stats.TotalOutbound)
	assert.EqualValues(t, 1, stats.TotalSimulated)
}

func TestSimulatorSurvivesPanickingLogger(t *testing.T) {
	d, _, _ := newTestSimulator(t, &recordingLogger{panics: true})

	res, err := d.Send(context.Background(), Text{To: "2348012345678", Body: "hello"})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.NotEmpty(t, res.ProviderMessageID)
}

func TestSimulatorUniqueIDs(t *testing.T) {
	d, _, _ := newTestSimulator(t, &recordingLogger{})

	a, err := d.Send(context.Background(), Text{To: "1", Body: "a"})
	require.NoError(t, err)
	b, err := d.Send(context.Background(), Text{To: "1", Body: "b"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ProviderMessageID, b.ProviderMessageID)
}

func TestSimulatorRejectsMalformed(t *testing.T) {
	logger := &recordingLogger{}
	d, _, _ := newTestSimulator(t, logger)

	_, err := d.Send(context.Background(), Buttons{To: "1", Body: "pick"})
	require.Error(t, err)
	assert.Empty(t, logger.Entries())
}
