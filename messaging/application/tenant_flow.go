package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/AzielCF/az-estate/estate/domain"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/role"
	"github.com/AzielCF/az-estate/messaging/domain/session"
	"github.com/sirupsen/logrus"
)

const (
	TenantSelectProperty      session.Tag = "select_property"
	TenantAwaitingDescription session.Tag = "awaiting_description"
)

const (
	OptionNewRequest   = "new_service_request"
	OptionViewRequests = "view_service_requests"
	OptionViewTenancy  = "view_tenancy"
)

const tenantRequestListLimit = 10

type TenantFlow struct {
	properties domain.PropertyRepository
	requests   domain.RequestRepository
	notifier   *Notifier
	confirm    *confirmation
}

func NewTenantFlow(properties domain.PropertyRepository, requests domain.RequestRepository, notifier *Notifier) *TenantFlow {
	return &TenantFlow{
		properties: properties,
		requests:   requests,
		notifier:   notifier,
		confirm:    &confirmation{requests: requests, properties: properties, notifier: notifier},
	}
}

func (f *TenantFlow) Role() role.Role              { return role.Tenant }
func (f *TenantFlow) Namespace() session.Namespace { return session.NamespaceTenant }

func (f *TenantFlow) Menu(turn Turn) channel.Outbound {
	name := ""
	if turn.Accounts.Tenant != nil {
		name = turn.Accounts.Tenant.Name
	}
	greeting := "Hi " + firstName(name) + ", what can we help you with?"
	if turn.FirstContact {
		greeting = "Welcome, " + firstName(name) + "! What can we help you with today?"
	}
	return buttons(turn.Sender, greeting,
		channel.Button{ID: OptionNewRequest, Title: "New Request"},
		channel.Button{ID: OptionViewRequests, Title: "My Requests"},
		channel.Button{ID: OptionViewTenancy, Title: "My Tenancy"},
	)
}

func (f *TenantFlow) Handle(ctx context.Context, turn Turn) (Outcome, error) {
	tenant := turn.Accounts.Tenant
	if tenant == nil {
		return finish(f.Menu(turn)), nil
	}

	if opt := turn.Option(); opt != "" {
		return f.handleOption(ctx, turn, *tenant, opt)
	}

	switch turn.State.Tag {
	case "":
		return f.handleIdle(ctx, turn, *tenant)
	case TenantSelectProperty:
		return f.handleSelectProperty(ctx, turn)
	case TenantAwaitingDescription:
		return f.handleDescription(ctx, turn, *tenant)
	}

	logrus.Warnf("[FLOW:TENANT] unknown state %q for %s, resetting", turn.State.Tag, turn.Sender)
	return finish(f.Menu(turn)), nil
}

func (f *TenantFlow) handleOption(ctx context.Context, turn Turn, tenant domain.Tenant, opt string) (Outcome, error) {
	switch opt {
	case OptionNewRequest:
		return f.startRequest(ctx, turn, tenant)
	case OptionViewRequests:
		return f.listRequests(ctx, turn, tenant)
	case OptionViewTenancy:
		return f.showTenancy(ctx, turn, tenant)
	}
	if id, accept, ok := parseAnswer(opt); ok {
		return f.confirm.respond(ctx, tenant, turn.Sender, id, accept)
	}
	return stay(f.Menu(turn)), nil
}

func (f *TenantFlow) handleIdle(ctx context.Context, turn Turn, tenant domain.Tenant) (Outcome, error) {
	t := turn.Text()
	if isKeyword(t, answerYes) || isKeyword(t, answerNo) {
		id, found, err := f.confirm.latest(ctx, tenant)
		if err != nil {
			return Outcome{}, err
		}
		if found {
			return f.confirm.respond(ctx, tenant, turn.Sender, id, isKeyword(t, answerYes))
		}
	}
	return stay(f.Menu(turn)), nil
}

func (f *TenantFlow) startRequest(ctx context.Context, turn Turn, tenant domain.Tenant) (Outcome, error) {
	tenancies, err := f.properties.ActiveTenancies(ctx, tenant.ID)
	if err != nil {
		return Outcome{}, err
	}

	switch len(tenancies) {
	case 0:
		return stay(text(turn.Sender, "We could not find an active tenancy on your account, so a service request cannot be logged yet. Please contact your property manager.")), nil
	case 1:
		next := session.Step(TenantAwaitingDescription, session.Payload{ID: tenancies[0].PropertyID})
		return moveTo(next, text(turn.Sender, describePrompt(tenancies[0].PropertyName))), nil
	}

	shown := tenancies
	if len(shown) > maxListLines {
		shown = shown[:maxListLines]
	}
	ids := make([]uint, len(shown))
	lines := make([]string, len(shown))
	for i, t := range shown {
		ids[i] = t.PropertyID
		lines[i] = fmt.Sprintf("%d. %s", i+1, t.PropertyName)
	}
	body := numbered("Which property is the issue at? Reply with its number.", lines, len(tenancies))
	return moveTo(session.Step(TenantSelectProperty, session.Payload{IDs: ids}), text(turn.Sender, body)), nil
}

func (f *TenantFlow) handleSelectProperty(ctx context.Context, turn Turn) (Outcome, error) {
	ids := turn.State.IDs()
	idx, ok := pickIndex(turn.Text(), len(ids))
	if !ok {
		return stay(text(turn.Sender, fmt.Sprintf("Please reply with a number between 1 and %d.", len(ids)))), nil
	}

	name := "your property"
	if p, err := f.properties.GetProperty(ctx, ids[idx]); err == nil {
		name = p.Name
	}
	next := session.Step(TenantAwaitingDescription, session.Payload{ID: ids[idx]})
	return moveTo(next, text(turn.Sender, describePrompt(name))), nil
}

func (f *TenantFlow) handleDescription(ctx context.Context, turn Turn, tenant domain.Tenant) (Outcome, error) {
	description := turn.Text()
	if description == "" {
		return stay(text(turn.Sender, "Please describe the issue in a message.")), nil
	}

	propertyName := ""
	if p, err := f.properties.GetProperty(ctx, turn.State.ID()); err == nil {
		propertyName = p.Name
	}

	req := domain.ServiceRequest{
		TenantID:     tenant.ID,
		PropertyID:   turn.State.ID(),
		PropertyName: propertyName,
		Description:  description,
		Status:       domain.StatusPending,
	}
	if err := f.requests.Create(ctx, &req); err != nil {
		return Outcome{}, err
	}
	logrus.Infof("[FLOW:TENANT] request #%d created by tenant %d", req.ID, tenant.ID)

	out := finish(text(turn.Sender, fmt.Sprintf("Thanks! Your service request #%d has been logged and the facility team has been notified.", req.ID)))
	out.After = func(ctx context.Context) {
		managers, landlord := requestStakeholders(ctx, f.properties, req.PropertyID)
		msgs := requestNotifications(managers, landlord, req, tenant.Name, "New service request")
		sent := f.notifier.Notify(ctx, msgs...)
		logrus.Infof("[FLOW:TENANT] request #%d, %d/%d notifications accepted", req.ID, sent, len(msgs))
	}
	return out, nil
}

func (f *TenantFlow) listRequests(ctx context.Context, turn Turn, tenant domain.Tenant) (Outcome, error) {
	reqs, err := f.requests.ListByTenant(ctx, tenant.ID, tenantRequestListLimit)
	if err != nil {
		return Outcome{}, err
	}
	if len(reqs) == 0 {
		return stay(text(turn.Sender, "You have no service requests yet.")), nil
	}
	lines := make([]string, len(reqs))
	for i, r := range reqs {
		lines[i] = requestLine(i, r, turn.Now)
	}
	return stay(text(turn.Sender, numbered("Your recent service requests:", lines, len(lines)))), nil
}

func (f *TenantFlow) showTenancy(ctx context.Context, turn Turn, tenant domain.Tenant) (Outcome, error) {
	tenancies, err := f.properties.ActiveTenancies(ctx, tenant.ID)
	if err != nil {
		return Outcome{}, err
	}
	if len(tenancies) == 0 {
		return stay(text(turn.Sender, "You have no active tenancy with us.")), nil
	}

	var b strings.Builder
	b.WriteString("Your tenancy")
	for _, t := range tenancies {
		b.WriteString(fmt.Sprintf("\n\n%s\nRent: %s\nStarted: %s\nExpires: %s", t.PropertyName, money(t.RentAmount), date(t.StartDate), date(t.EndDate)))
		if !t.EndDate.IsZero() {
			b.WriteString(" (" + age(t.EndDate, turn.Now) + ")")
		}
	}
	return stay(text(turn.Sender, b.String())), nil
}

func describePrompt(property string) string {
	if property == "" {
		property = "your property"
	}
	return fmt.Sprintf("Please describe the issue at %s.", property)
}
