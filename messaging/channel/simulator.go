package channel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// simulator never talks to the provider. It publishes each message on the
// event bus for the simulator UI and logs it, then reports success.
type simulator struct {
	opts Options
	now  func() time.Time
}

func newSimulator(opts Options) *simulator {
	return &simulator{opts: opts, now: time.Now}
}

func (s *simulator) Mode() Mode {
	return ModeSimulation
}

func (s *simulator) Send(ctx context.Context, msg Outbound) (SendResult, error) {
	started := time.Now()
	payload, err := BuildPayload(msg)
	if err != nil {
		record(s.opts, ModeSimulation, msg, SendResult{}, err, started)
		return SendResult{}, err
	}

	result := SendResult{Accepted: true, ProviderMessageID: "sim-" + uuid.NewString()}

	safely("simulator publish", func() {
		err := s.opts.Bus.Publish(TopicOutbound, SimulatedMessage{
			ProviderMessageID: result.ProviderMessageID,
			To:                msg.Recipient(),
			Type:              msg.Type(),
			Preview:           msg.Preview(),
			Payload:           payload,
			SentAt:            s.now().UTC(),
		})
		if err != nil {
			logrus.WithError(err).Warnf("[SIMULATOR] failed to publish %s", result.ProviderMessageID)
		}
	})

	safely("simulator log", func() {
		err := s.opts.Logger.LogOutbound(ctx, LogEntry{
			Recipient:         msg.Recipient(),
			Type:              msg.Type(),
			Content:           msg.Preview(),
			ProviderMessageID: result.ProviderMessageID,
			Simulated:         true,
		})
		if err != nil {
			logrus.WithError(err).Warnf("[SIMULATOR] failed to log %s", result.ProviderMessageID)
		}
	})

	logrus.Debugf("[SIMULATOR] %s to %s as %s", msg.Type(), msg.Recipient(), result.ProviderMessageID)
	record(s.opts, ModeSimulation, msg, result, nil, started)
	return result, nil
}
