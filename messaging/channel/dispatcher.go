package channel

import (
	"context"
	"net/http"
	"time"

	"github.com/AzielCF/az-estate/pkg/chatmonitor"
	pkgError "github.com/AzielCF/az-estate/pkg/error"
	"github.com/AzielCF/az-estate/pkg/metrics"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
)

type Mode string

const (
	ModeLive       Mode = "live"
	ModeSimulation Mode = "simulation"

	// TopicOutbound is the event bus topic simulated sends are published on.
	TopicOutbound = "simulator.outbound"
)

// SendResult has the same shape in both modes so callers never branch on mode.
type SendResult struct {
	Accepted          bool   `json:"accepted"`
	ProviderMessageID string `json:"provider_message_id"`
}

// Dispatcher sends outbound messages. Failures are *pkgError.ChannelError
// (provider side) or pkgError.ValidationError (malformed message).
type Dispatcher interface {
	Send(ctx context.Context, msg Outbound) (SendResult, error)
	Mode() Mode
}

// LogEntry is what the dispatcher hands to the message log.
type LogEntry struct {
	Recipient         string
	Type              string
	Content           string
	ProviderMessageID string
	Simulated         bool
}

// MessageLogger persists outbound messages. Errors never fail a send.
type MessageLogger interface {
	LogOutbound(ctx context.Context, entry LogEntry) error
}

// Publisher is the event bus side the simulator needs.
type Publisher interface {
	Publish(topic string, payload any) error
}

// SimulatedMessage is published on TopicOutbound for every simulated send.
type SimulatedMessage struct {
	ProviderMessageID string    `json:"provider_message_id"`
	To                string    `json:"to"`
	Type              string    `json:"type"`
	Preview           string    `json:"preview"`
	Payload           Payload   `json:"payload"`
	SentAt            time.Time `json:"sent_at"`
}

type LiveConfig struct {
	BaseURL       string
	APIVersion    string
	PhoneNumberID string
	AccessToken   string
	Timeout       time.Duration
}

const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v21.0"
	DefaultTimeout    = 15 * time.Second
)

// Options configures NewDispatcher. Simulation picks the mode once per process.
type Options struct {
	Simulation bool
	Live       LiveConfig
	HTTPClient *http.Client
	Bus        Publisher
	Logger     MessageLogger
	Metrics    *metrics.Collector
	Monitor    *chatmonitor.Monitor
}

// NewDispatcher validates the settings of the selected mode, and only those,
// and returns the matching implementation. Every missing setting is reported
// in a single *pkgError.ConfigError.
func NewDispatcher(opts Options) (Dispatcher, error) {
	if opts.Simulation {
		err := validation.Errors{
			"event_bus":      validation.Validate(opts.Bus, validation.NotNil),
			"message_logger": validation.Validate(opts.Logger, validation.NotNil),
		}.Filter()
		if err != nil {
			return nil, &pkgError.ConfigError{Component: "simulation dispatcher", Err: err}
		}
		logrus.Warn("[DISPATCHER] Simulation mode enabled, outbound messages will not reach the provider")
		return newSimulator(opts), nil
	}

	err := validation.Errors{
		"CHANNEL_PHONE_NUMBER_ID": validation.Validate(opts.Live.PhoneNumberID, validation.Required),
		"CHANNEL_ACCESS_TOKEN":    validation.Validate(opts.Live.AccessToken, validation.Required),
	}.Filter()
	if err != nil {
		return nil, &pkgError.ConfigError{Component: "live dispatcher", Err: err}
	}
	logrus.Infof("[DISPATCHER] Live mode enabled for phone number id %s", opts.Live.PhoneNumberID)
	return newLiveDispatcher(opts), nil
}

func record(opts Options, mode Mode, msg Outbound, result SendResult, err error, started time.Time) {
	elapsed := time.Since(started)
	opts.Metrics.ObserveSend(string(mode), msg.Type(), err, elapsed)

	evt := chatmonitor.Event{
		Sender:     msg.Recipient(),
		Stage:      chatmonitor.StageOutbound,
		Kind:       msg.Type(),
		Status:     chatmonitor.StatusOK,
		Simulated:  mode == ModeSimulation,
		DurationMs: elapsed.Milliseconds(),
		Metadata:   map[string]string{"provider_message_id": result.ProviderMessageID},
	}
	if err != nil {
		evt.Status = chatmonitor.StatusError
		evt.Error = err.Error()
	}
	opts.Monitor.Record(evt)
}
