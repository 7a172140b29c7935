package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AzielCF/az-estate/estate/domain"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/role"
	"github.com/AzielCF/az-estate/messaging/domain/session"
	"github.com/sirupsen/logrus"
)

const (
	FacilityAwaitingAcknowledgement session.Tag = "awaiting_acknowledgement"
	FacilityAwaitingUpdate          session.Tag = "awaiting_update"
	FacilityAwaitingResolution      session.Tag = "awaiting_resolution"
	FacilityRequestList             session.Tag = "view_request_list"
	FacilityViewingRequest          session.Tag = "viewing_request"
)

const (
	OptionFMAcknowledge   = "fm_acknowledge"
	OptionFMResolveUpdate = "fm_resolve_update"
	OptionFMUpdate        = "fm_update"
	OptionFMResolve       = "fm_resolve"
	OptionFMViewRequests  = "fm_view_requests"
	OptionFMRequestAck    = "fm_req_ack"
	OptionFMRequestSolve  = "fm_req_resolve"
	OptionFMRequestBack   = "fm_req_back"
)

const (
	updateFormatHint = "Please send the update as <id>: <feedback>, for example 12: plumber booked for Monday."
	requestIDHint    = "Please reply with the request number, for example 12."
)

type FacilityFlow struct {
	accounts   domain.AccountRepository
	properties domain.PropertyRepository
	requests   domain.RequestRepository
	notifier   *Notifier
	confirm    *confirmation
}

func NewFacilityFlow(accounts domain.AccountRepository, properties domain.PropertyRepository, requests domain.RequestRepository, notifier *Notifier) *FacilityFlow {
	return &FacilityFlow{
		accounts:   accounts,
		properties: properties,
		requests:   requests,
		notifier:   notifier,
		confirm:    &confirmation{requests: requests, properties: properties, notifier: notifier},
	}
}

func (f *FacilityFlow) Role() role.Role              { return role.FacilityManager }
func (f *FacilityFlow) Namespace() session.Namespace { return session.NamespaceFacility }

func (f *FacilityFlow) Menu(turn Turn) channel.Outbound {
	name := ""
	if turn.Accounts.FacilityManager != nil {
		name = turn.Accounts.FacilityManager.Name
	}
	return buttons(turn.Sender, "Hi "+firstName(name)+", what would you like to do?",
		channel.Button{ID: OptionFMViewRequests, Title: "View Requests"},
		channel.Button{ID: OptionFMAcknowledge, Title: "Acknowledge"},
		channel.Button{ID: OptionFMResolveUpdate, Title: "Resolve/Update"},
	)
}

func (f *FacilityFlow) Handle(ctx context.Context, turn Turn) (Outcome, error) {
	fm := turn.Accounts.FacilityManager
	if fm == nil {
		return finish(f.Menu(turn)), nil
	}

	if opt := turn.Option(); opt != "" {
		return f.handleOption(ctx, turn, *fm, opt)
	}

	switch turn.State.Tag {
	case "":
		return stay(f.Menu(turn)), nil
	case FacilityAwaitingAcknowledgement:
		id, ok := parseID(turn.Text())
		if !ok {
			return stay(text(turn.Sender, requestIDHint)), nil
		}
		return f.acknowledge(ctx, turn, *fm, id)
	case FacilityAwaitingResolution:
		id, ok := parseID(turn.Text())
		if !ok {
			return stay(text(turn.Sender, requestIDHint)), nil
		}
		return f.resolve(ctx, turn, *fm, id)
	case FacilityAwaitingUpdate:
		return f.postUpdate(ctx, turn, *fm)
	case FacilityRequestList:
		ids := turn.State.IDs()
		idx, ok := pickIndex(turn.Text(), len(ids))
		if !ok {
			return stay(text(turn.Sender, fmt.Sprintf("Please reply with a number between 1 and %d.", len(ids)))), nil
		}
		return f.showRequest(ctx, turn, *fm, ids[idx])
	case FacilityViewingRequest:
		return f.showRequest(ctx, turn, *fm, turn.State.ID())
	}

	logrus.Warnf("[FLOW:FACILITY] unknown state %q for %s, resetting", turn.State.Tag, turn.Sender)
	return finish(f.Menu(turn)), nil
}

func (f *FacilityFlow) handleOption(ctx context.Context, turn Turn, fm domain.FacilityManager, opt string) (Outcome, error) {
	switch opt {
	case OptionFMViewRequests, OptionFMRequestBack:
		return f.listRequests(ctx, turn, fm)
	case OptionFMAcknowledge:
		return moveTo(session.Bare(FacilityAwaitingAcknowledgement), text(turn.Sender, "Which request are you acknowledging? "+requestIDHint)), nil
	case OptionFMResolveUpdate:
		return stay(buttons(turn.Sender, "Do you want to post an update or mark a request as resolved?",
			channel.Button{ID: OptionFMUpdate, Title: "Post Update"},
			channel.Button{ID: OptionFMResolve, Title: "Mark Resolved"},
		)), nil
	case OptionFMUpdate:
		return moveTo(session.Bare(FacilityAwaitingUpdate), text(turn.Sender, updateFormatHint)), nil
	case OptionFMResolve:
		return moveTo(session.Bare(FacilityAwaitingResolution), text(turn.Sender, "Which request did you resolve? "+requestIDHint)), nil
	case OptionFMRequestAck:
		if turn.State.Is(FacilityViewingRequest) {
			return f.acknowledge(ctx, turn, fm, turn.State.ID())
		}
	case OptionFMRequestSolve:
		if turn.State.Is(FacilityViewingRequest) {
			return f.resolve(ctx, turn, fm, turn.State.ID())
		}
	}
	return stay(f.Menu(turn)), nil
}

func (f *FacilityFlow) listRequests(ctx context.Context, turn Turn, fm domain.FacilityManager) (Outcome, error) {
	reqs, err := f.requests.ListByManager(ctx, fm.ID, domain.OpenStatuses()...)
	if err != nil {
		return Outcome{}, err
	}
	if len(reqs) == 0 {
		return finish(text(turn.Sender, "You have no open service requests.")), nil
	}
	total := len(reqs)
	if total > maxListLines {
		reqs = reqs[:maxListLines]
	}

	ids := make([]uint, len(reqs))
	lines := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
		lines[i] = requestLine(i, r, turn.Now)
	}
	body := numbered("Open requests on your properties. Reply with a number to open one:", lines, total)
	return moveTo(session.Step(FacilityRequestList, session.Payload{IDs: ids}), text(turn.Sender, body)), nil
}

func (f *FacilityFlow) showRequest(ctx context.Context, turn Turn, fm domain.FacilityManager, id uint) (Outcome, error) {
	req, err := f.requests.GetForManager(ctx, fm.ID, id)
	if isLookupMiss(err) {
		return finish(text(turn.Sender, fmt.Sprintf("Request #%d is no longer available.", id))), nil
	}
	if err != nil {
		return Outcome{}, err
	}

	body := fmt.Sprintf("Request #%d\nProperty: %s\nStatus: %s\nLogged: %s\n\n%s",
		req.ID, req.PropertyName, req.Status.Label(), age(req.CreatedAt, turn.Now), req.Description)
	menu := channel.Buttons{
		To:   turn.Sender,
		Body: body,
		Options: []channel.Button{
			{ID: OptionFMRequestAck, Title: "Acknowledge"},
			{ID: OptionFMRequestSolve, Title: "Resolve"},
			{ID: OptionFMRequestBack, Title: "Back"},
		},
	}
	return moveTo(session.Step(FacilityViewingRequest, session.Payload{ID: req.ID}), menu), nil
}

func (f *FacilityFlow) acknowledge(ctx context.Context, turn Turn, fm domain.FacilityManager, id uint) (Outcome, error) {
	req, out, ok, err := f.assigned(ctx, turn, fm, id, domain.StatusInProgress)
	if !ok {
		return out, err
	}

	updated, err := f.requests.UpdateStatus(ctx, req.ID, domain.StatusInProgress)
	if errors.Is(err, domain.ErrInvalidTransition) {
		return stay(text(turn.Sender, fmt.Sprintf("Request #%d was already updated.", req.ID))), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	logrus.Infof("[FLOW:FACILITY] request #%d acknowledged by manager %d", updated.ID, fm.ID)

	res := finish(text(turn.Sender, fmt.Sprintf("Request #%d acknowledged. The tenant has been notified.", updated.ID)))
	res.After = func(ctx context.Context) {
		tenant, err := f.accounts.GetTenant(ctx, updated.TenantID)
		if err != nil {
			logrus.WithError(err).Warnf("[FLOW:FACILITY] tenant of request #%d not found", updated.ID)
			return
		}
		f.notifier.Notify(ctx, text(tenant.Phone, fmt.Sprintf("Hi %s, your service request #%d (%s) is now in progress.", firstName(tenant.Name), updated.ID, updated.Description)))
	}
	return res, nil
}

func (f *FacilityFlow) resolve(ctx context.Context, turn Turn, fm domain.FacilityManager, id uint) (Outcome, error) {
	req, out, ok, err := f.assigned(ctx, turn, fm, id, domain.StatusResolved)
	if !ok {
		return out, err
	}

	updated, err := f.requests.UpdateStatus(ctx, req.ID, domain.StatusResolved)
	if errors.Is(err, domain.ErrInvalidTransition) {
		return stay(text(turn.Sender, fmt.Sprintf("Request #%d was already updated.", req.ID))), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	logrus.Infof("[FLOW:FACILITY] request #%d resolved by manager %d", updated.ID, fm.ID)

	res := finish(text(turn.Sender, fmt.Sprintf("Request #%d marked as resolved. We have asked the tenant to confirm.", updated.ID)))
	res.After = func(ctx context.Context) {
		var msgs []channel.Outbound
		if tenant, err := f.accounts.GetTenant(ctx, updated.TenantID); err == nil {
			msgs = append(msgs, f.confirm.ask(tenant, updated))
		} else {
			logrus.WithError(err).Warnf("[FLOW:FACILITY] tenant of request #%d not found", updated.ID)
		}
		if landlord, err := f.properties.LandlordOf(ctx, updated.PropertyID); err == nil && landlord.Phone != "" {
			msgs = append(msgs, text(landlord.Phone, fmt.Sprintf("Request #%d at %s was resolved by %s: %s", updated.ID, updated.PropertyName, fm.Name, updated.Description)))
		}
		f.notifier.Notify(ctx, msgs...)
	}
	return res, nil
}

func (f *FacilityFlow) postUpdate(ctx context.Context, turn Turn, fm domain.FacilityManager) (Outcome, error) {
	id, feedback, ok := parseUpdate(turn.Text())
	if !ok {
		return stay(text(turn.Sender, updateFormatHint)), nil
	}

	req, err := f.requests.GetForManager(ctx, fm.ID, id)
	if isLookupMiss(err) {
		return stay(text(turn.Sender, fmt.Sprintf("Request #%d is not one of your assigned requests. %s", id, updateFormatHint))), nil
	}
	if err != nil {
		return Outcome{}, err
	}

	update := domain.RequestUpdate{RequestID: req.ID, ManagerID: fm.ID, Feedback: feedback}
	if err := f.requests.AddUpdate(ctx, &update); err != nil {
		return Outcome{}, err
	}
	logrus.Infof("[FLOW:FACILITY] update posted on request #%d by manager %d", req.ID, fm.ID)

	res := finish(text(turn.Sender, fmt.Sprintf("Update posted on request #%d. The tenant has been notified.", req.ID)))
	res.After = func(ctx context.Context) {
		tenant, err := f.accounts.GetTenant(ctx, req.TenantID)
		if err != nil {
			logrus.WithError(err).Warnf("[FLOW:FACILITY] tenant of request #%d not found", req.ID)
			return
		}
		f.notifier.Notify(ctx, text(tenant.Phone, fmt.Sprintf("Update on your service request #%d: %s", req.ID, feedback)))
	}
	return res, nil
}

// assigned loads a request the manager may move to target. When ok is false
// the returned Outcome already re-prompts the manager.
func (f *FacilityFlow) assigned(ctx context.Context, turn Turn, fm domain.FacilityManager, id uint, target domain.RequestStatus) (domain.ServiceRequest, Outcome, bool, error) {
	req, err := f.requests.GetForManager(ctx, fm.ID, id)
	if isLookupMiss(err) {
		return req, stay(text(turn.Sender, fmt.Sprintf("Request #%d is not one of your assigned requests. %s", id, requestIDHint))), false, nil
	}
	if err != nil {
		return req, Outcome{}, false, err
	}
	if !domain.CanTransition(req.Status, target) {
		return req, stay(text(turn.Sender, fmt.Sprintf("Request #%d is %s and cannot be moved to %s.", req.ID, strings.ToLower(req.Status.Label()), strings.ToLower(target.Label())))), false, nil
	}
	return req, Outcome{}, true, nil
}

// parseUpdate splits "<id>: <feedback>".
func parseUpdate(s string) (uint, string, bool) {
	idPart, feedback, found := strings.Cut(s, ":")
	if !found {
		return 0, "", false
	}
	id, ok := parseID(idPart)
	feedback = strings.TrimSpace(feedback)
	if !ok || feedback == "" {
		return 0, "", false
	}
	return id, feedback, true
}

func isLookupMiss(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrNotAssigned)
}
