package channel

import (
	"context"
	"errors"
	"sync"
	"testing"

	pkgError "github.com/AzielCF/az-estate/pkg/error"
	"github.com/AzielCF/az-estate/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
	err     error
	panics  bool
	done    chan struct{}
}

func (l *recordingLogger) LogOutbound(_ context.Context, entry LogEntry) error {
	if l.panics {
		panic("log store exploded")
	}
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
	if l.done != nil {
		l.done <- struct{}{}
	}
	return l.err
}

func (l *recordingLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

func TestNewDispatcherLiveRequiresCredentials(t *testing.T) {
	_, err := NewDispatcher(Options{})
	require.Error(t, err)

	var cfgErr *pkgError.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "live dispatcher", cfgErr.Component)
	assert.Contains(t, err.Error(), "CHANNEL_PHONE_NUMBER_ID")
	assert.Contains(t, err.Error(), "CHANNEL_ACCESS_TOKEN")
}

func TestNewDispatcherSimulationIgnoresLiveCredentials(t *testing.T) {
	bus := eventbus.New(4)
	defer bus.Close()

	d, err := NewDispatcher(Options{Simulation: true, Bus: bus, Logger: &recordingLogger{}})
	require.NoError(t, err)
	assert.Equal(t, ModeSimulation, d.Mode())
}

func TestNewDispatcherSimulationRequiresCollaborators(t *testing.T) {
	_, err := NewDispatcher(Options{Simulation: true})

	var cfgErr *pkgError.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "event_bus")
	assert.Contains(t, err.Error(), "message_logger")
}

func TestNewDispatcherLive(t *testing.T) {
	d, err := NewDispatcher(Options{Live: LiveConfig{PhoneNumberID: "100", AccessToken: "token"}})
	require.NoError(t, err)
	assert.Equal(t, ModeLive, d.Mode())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pkgError.ChannelError{Kind: pkgError.ChannelUnavailable, Retryable: true}))
	assert.False(t, IsRetryable(&pkgError.ChannelError{Kind: pkgError.ChannelAuthError}))
	assert.False(t, IsRetryable(errors.New("boom")))
}
