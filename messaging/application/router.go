package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AzielCF/az-estate/estate/domain"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/event"
	"github.com/AzielCF/az-estate/messaging/domain/role"
	"github.com/AzielCF/az-estate/messaging/domain/session"
	"github.com/AzielCF/az-estate/pkg/chatmonitor"
	pkgError "github.com/AzielCF/az-estate/pkg/error"
	"github.com/AzielCF/az-estate/pkg/metrics"
	"github.com/AzielCF/az-estate/pkg/phone"
	"github.com/AzielCF/az-estate/validations"
	"github.com/sirupsen/logrus"
)

const switchRoleAck = "Your role selection has been cleared. Send any message to choose again."

// Dependencies is everything the engine needs. Repositories are required,
// Metrics and Monitor are optional.
type Dependencies struct {
	Sessions   *session.Manager
	Dispatcher channel.Dispatcher
	Normalizer phone.Normalizer

	Accounts   domain.AccountRepository
	Properties domain.PropertyRepository
	Requests   domain.RequestRepository
	KYC        domain.KYCRepository
	Leads      domain.LeadRepository
	ChatLog    *ChatLogger

	NotifyDelay time.Duration
	Landlord    LandlordSettings

	Metrics *metrics.Collector
	Monitor *chatmonitor.Monitor
	Now     func() time.Time
}

// Router is the single entry point for inbound events.
type Router struct {
	normalizer phone.Normalizer
	sessions   *session.Manager
	resolver   *RoleResolver
	flows      map[role.Role]Flow
	runner     *runner
	dispatcher channel.Dispatcher
	chatLog    *ChatLogger
	metrics    *metrics.Collector
	monitor    *chatmonitor.Monitor
	now        func() time.Time
}

func NewRouter(deps Dependencies) *Router {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	notifier := NewNotifier(deps.Dispatcher, deps.NotifyDelay, deps.Metrics)

	r := &Router{
		normalizer: deps.Normalizer,
		sessions:   deps.Sessions,
		resolver:   NewRoleResolver(deps.Accounts, deps.Sessions),
		flows:      make(map[role.Role]Flow),
		runner: &runner{
			sessions:   deps.Sessions,
			dispatcher: deps.Dispatcher,
			metrics:    deps.Metrics,
			monitor:    deps.Monitor,
		},
		dispatcher: deps.Dispatcher,
		chatLog:    deps.ChatLog,
		metrics:    deps.Metrics,
		monitor:    deps.Monitor,
		now:        now,
	}

	r.Register(NewTenantFlow(deps.Properties, deps.Requests, notifier))
	r.Register(NewFacilityFlow(deps.Accounts, deps.Properties, deps.Requests, notifier))
	r.Register(NewLandlordFlow(deps.Properties, deps.Requests, deps.KYC, deps.Landlord))
	r.Register(NewDefaultFlow(deps.Leads, deps.Normalizer))
	return r
}

// Register installs or replaces the flow of a role.
func (r *Router) Register(flow Flow) {
	r.flows[flow.Role()] = flow
}

// Route handles the first event of a webhook batch. Errors are logged and
// never returned: the provider has already been acknowledged.
func (r *Router) Route(ctx context.Context, events []event.Event) {
	if len(events) == 0 {
		return
	}
	if len(events) > 1 {
		logrus.Debugf("[ROUTER] batch of %d events, handling the first only", len(events))
	}
	if err := r.Handle(ctx, events[0]); err != nil {
		logrus.WithError(err).Errorf("[ROUTER] event %s not handled", events[0].ID())
	}
}

// Handle runs one event through validation, role resolution and the flow of
// the resolved role.
func (r *Router) Handle(ctx context.Context, evt event.Event) error {
	started := time.Now()
	if err := validations.ValidateInboundEvent(ctx, evt); err != nil {
		r.observe(evt, "", role.Unknown, "invalid", err, started)
		return err
	}

	sender := r.normalizer.Normalize(evt.Sender())
	if sender == "" {
		err := pkgError.ValidationError(fmt.Sprintf("sender %q has no digits", evt.Sender()))
		r.observe(evt, "", role.Unknown, "invalid", err, started)
		return err
	}

	logrus.WithFields(logrus.Fields{"sender": sender, "kind": evt.Kind(), "id": evt.ID()}).Debug("[ROUTER] inbound event")
	r.logInbound(ctx, sender, evt)

	if t, ok := evt.(event.TextEvent); ok && isKeyword(t.Body, KeywordSwitchRole) {
		err := r.sessions.Reset(ctx, sender)
		if err == nil {
			r.reply(ctx, text(sender, switchRoleAck))
		}
		r.observe(evt, sender, role.Unknown, "switch_role", err, started)
		return err
	}

	res, err := r.resolver.Resolve(ctx, sender, evt)
	if err != nil {
		r.observe(evt, sender, res.Role, "error", err, started)
		return fmt.Errorf("failed to resolve role of %s: %w", sender, err)
	}
	r.recordRoute(evt, res)
	if res.Halt {
		r.reply(ctx, res.Prompt)
		r.observe(evt, sender, res.Role, "role_prompt", nil, started)
		return nil
	}

	flow, ok := r.flows[res.Role]
	if !ok {
		logrus.Warnf("[ROUTER] no flow registered for role %s, dropping event from %s", res.Role, sender)
		r.observe(evt, sender, res.Role, "dropped", nil, started)
		return nil
	}

	state, err := r.sessions.Load(ctx, flow.Namespace(), sender)
	if err != nil {
		r.observe(evt, sender, res.Role, "error", err, started)
		return err
	}

	err = r.runner.run(ctx, flow, Turn{
		Sender:       sender,
		Event:        evt,
		State:        state,
		Accounts:     res.Accounts,
		FirstContact: res.IsFirstContact,
		Now:          r.now().UTC(),
	}, res.Selected)

	outcome := "handled"
	if err != nil {
		outcome = "error"
	}
	r.observe(evt, sender, res.Role, outcome, err, started)
	return err
}

func (r *Router) reply(ctx context.Context, msg channel.Outbound) {
	if _, err := r.dispatcher.Send(ctx, msg); err != nil {
		logrus.WithError(err).Warnf("[ROUTER] reply to %s not delivered", msg.Recipient())
	}
}

func (r *Router) logInbound(ctx context.Context, sender string, evt event.Event) {
	if r.chatLog == nil {
		return
	}
	simulated := r.dispatcher.Mode() == channel.ModeSimulation
	if err := r.chatLog.LogInbound(ctx, sender, evt, simulated); err != nil {
		logrus.WithError(err).Warnf("[ROUTER] failed to log inbound message from %s", sender)
	}
}

// recordRoute notes which role the resolver picked for evt. Failures are
// recorded once, by observe.
func (r *Router) recordRoute(evt event.Event, res Resolution) {
	r.monitor.Record(chatmonitor.Event{
		Sender: res.Sender,
		Role:   string(res.Role),
		Stage:  chatmonitor.StageRoute,
		Kind:   string(evt.Kind()),
		Status: chatmonitor.StatusOK,
		Metadata: map[string]string{
			"first_contact": strconv.FormatBool(res.IsFirstContact),
			"selected":      strconv.FormatBool(res.Selected),
			"role_prompt":   strconv.FormatBool(res.Halt),
		},
	})
}

func (r *Router) observe(evt event.Event, sender string, rl role.Role, outcome string, err error, started time.Time) {
	kind := "unknown"
	if evt != nil {
		kind = string(evt.Kind())
	}
	r.metrics.ObserveInbound(kind, string(rl), outcome)

	status := chatmonitor.StatusOK
	switch {
	case err != nil:
		status = chatmonitor.StatusError
	case outcome == "dropped":
		status = chatmonitor.StatusSkipped
	}
	monitorEvt := chatmonitor.Event{
		Sender:     sender,
		Role:       string(rl),
		Stage:      chatmonitor.StageInbound,
		Kind:       kind,
		Status:     status,
		Simulated:  r.dispatcher.Mode() == channel.ModeSimulation,
		DurationMs: time.Since(started).Milliseconds(),
		Metadata:   map[string]string{"outcome": outcome},
	}
	if err != nil {
		monitorEvt.Error = err.Error()
	}
	r.monitor.Record(monitorEvt)
}
