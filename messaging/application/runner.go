package application

import (
	"context"
	"time"

	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/session"
	"github.com/AzielCF/az-estate/pkg/chatmonitor"
	"github.com/AzielCF/az-estate/pkg/metrics"
	"github.com/sirupsen/logrus"
)

const (
	closingMessage = "Thanks for reaching out. This conversation is closed, send any message to start again."
	failureMessage = "Sorry, something went wrong on our side. Please try again in a moment."
)

// runner applies the keywords shared by every flow, asks the flow for an
// Outcome, persists it and only then sends the replies.
type runner struct {
	sessions   *session.Manager
	dispatcher channel.Dispatcher
	metrics    *metrics.Collector
	monitor    *chatmonitor.Monitor
}

func (r *runner) run(ctx context.Context, flow Flow, turn Turn, showMenu bool) error {
	started := time.Now()
	out, err := r.decide(ctx, flow, turn, showMenu)
	if err != nil {
		logrus.WithError(err).Errorf("[FLOW:%s] %s failed in state %q", flow.Role(), turn.Sender, turn.State.Tag)
		out = stay(text(turn.Sender, failureMessage))
	}

	if perr := r.persist(ctx, flow, turn, out); perr != nil {
		logrus.WithError(perr).Errorf("[FLOW:%s] failed to persist state of %s", flow.Role(), turn.Sender)
		if err == nil {
			err = perr
		}
	}

	r.send(ctx, flow, out.Replies)
	if out.After != nil {
		out.After(ctx)
	}

	r.monitor.Record(chatmonitor.Event{
		Sender:     turn.Sender,
		Role:       string(flow.Role()),
		Stage:      chatmonitor.StageFlow,
		Kind:       string(turn.Event.Kind()),
		Status:     statusOf(err),
		DurationMs: time.Since(started).Milliseconds(),
		Metadata:   map[string]string{"from": string(turn.State.Tag), "to": nextTag(turn.State, out)},
	})
	return err
}

func (r *runner) decide(ctx context.Context, flow Flow, turn Turn, showMenu bool) (Outcome, error) {
	if showMenu {
		return stay(flow.Menu(turn)), nil
	}
	if t := turn.Text(); t != "" {
		switch {
		case isKeyword(t, KeywordDone):
			return finish(text(turn.Sender, closingMessage)), nil
		case isKeyword(t, KeywordMenu):
			return stay(flow.Menu(turn)), nil
		}
	}
	return flow.Handle(ctx, turn)
}

func (r *runner) persist(ctx context.Context, flow Flow, turn Turn, out Outcome) error {
	switch {
	case out.Clear:
		if turn.State.IsZero() {
			return nil
		}
		r.metrics.ObserveTransition(string(flow.Role()), "cleared")
		return r.sessions.Clear(ctx, flow.Namespace(), turn.Sender)
	case out.Next != nil:
		r.metrics.ObserveTransition(string(flow.Role()), string(out.Next.Tag))
		return r.sessions.Save(ctx, flow.Namespace(), turn.Sender, *out.Next)
	}
	return nil
}

// send hands every reply to the dispatcher. Channel errors are absorbed here:
// the state change above is never rolled back.
func (r *runner) send(ctx context.Context, flow Flow, replies []channel.Outbound) {
	for _, msg := range replies {
		if msg == nil {
			continue
		}
		if _, err := r.dispatcher.Send(ctx, msg); err != nil {
			logrus.WithError(err).Warnf("[FLOW:%s] reply %s to %s not delivered", flow.Role(), msg.Type(), msg.Recipient())
		}
	}
}

func nextTag(current session.State, out Outcome) string {
	switch {
	case out.Clear:
		return ""
	case out.Next != nil:
		return string(out.Next.Tag)
	}
	return string(current.Tag)
}

func statusOf(err error) string {
	if err != nil {
		return chatmonitor.StatusError
	}
	return chatmonitor.StatusOK
}
