package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AzielCF/az-estate/estate/domain"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/event"
	"github.com/AzielCF/az-estate/messaging/domain/role"
	"github.com/AzielCF/az-estate/messaging/domain/session"
	"github.com/AzielCF/az-estate/pkg/chatmonitor"
	pkgError "github.com/AzielCF/az-estate/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleTenantNewRequestNotifiesEveryStakeholder(t *testing.T) {
	delay := 40 * time.Millisecond
	h := newHarness(t, withNotifyDelay(delay))

	require.NoError(t, h.text("+234 801 111 1111", "hello"))
	menu := h.dispatcher.last()
	assert.Equal(t, []string{OptionNewRequest, OptionViewRequests, OptionViewTenancy}, optionIDs(menu))
	assert.Equal(t, tenantPhone, menu.Recipient())

	require.NoError(t, h.tap(tenantPhone, OptionNewRequest))
	st := h.state(session.NamespaceTenant, tenantPhone)
	assert.Equal(t, TenantAwaitingDescription, st.Tag)
	assert.Equal(t, h.data.Properties[0].ID, st.ID())

	h.dispatcher.reset()
	require.NoError(t, h.text("08011111111", "The kitchen tap is leaking"))

	assert.True(t, h.state(session.NamespaceTenant, tenantPhone).IsZero())

	reqs, err := h.requests.ListByTenant(context.Background(), h.data.Tenant.ID, 10)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.StatusPending, reqs[0].Status)
	assert.Equal(t, "The kitchen tap is leaking", reqs[0].Description)

	sent := h.dispatcher.all()
	require.Len(t, sent, 3)
	assert.Equal(t, tenantPhone, sent[0].msg.Recipient())
	assert.Contains(t, bodyOf(sent[0].msg), fmt.Sprintf("#%d", reqs[0].ID))

	notifications := h.dispatcher.templates(TemplateRequestNotification)
	require.Len(t, notifications, 2)
	assert.Equal(t, managerPhone, notifications[0].msg.Recipient())
	assert.Equal(t, landlordPhone, notifications[1].msg.Recipient())
	assert.GreaterOrEqual(t, notifications[1].at.Sub(notifications[0].at), delay-5*time.Millisecond)
}

func TestTwoRolesPromptForSelectionThenShowLandlordMenu(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.accounts.CreateTenant(context.Background(), &domain.Tenant{Name: "Demo Landlord", Phone: landlordPhone}))

	require.NoError(t, h.text("+2348033333333", "hi"))
	sent := h.dispatcher.all()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{role.Tenant.SelectionID(), role.PropertyOwner.SelectionID()}, optionIDs(sent[0].msg))

	stored, err := h.sessions.SelectedRole(context.Background(), landlordPhone)
	require.NoError(t, err)
	assert.Empty(t, stored)

	h.dispatcher.reset()
	require.NoError(t, h.tap(landlordPhone, role.PropertyOwner.SelectionID()))
	sent = h.dispatcher.all()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{OptionLLTenancies, OptionLLMaintenance, OptionLLKYCLink}, optionIDs(sent[0].msg))

	stored, err = h.sessions.SelectedRole(context.Background(), landlordPhone)
	require.NoError(t, err)
	assert.Equal(t, string(role.PropertyOwner), stored)

	h.dispatcher.reset()
	require.NoError(t, h.text(landlordPhone, "what now"))
	sent = h.dispatcher.all()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{OptionLLTenancies, OptionLLMaintenance, OptionLLKYCLink}, optionIDs(sent[0].msg))
}

func TestStoredRoleThatIsNoLongerEligibleIsDiscarded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.accounts.CreateTenant(ctx, &domain.Tenant{Name: "Demo Landlord", Phone: landlordPhone}))
	require.NoError(t, h.sessions.RememberRole(ctx, landlordPhone, string(role.FacilityManager)))

	require.NoError(t, h.text(landlordPhone, "hi"))
	assert.Equal(t, []string{role.Tenant.SelectionID(), role.PropertyOwner.SelectionID()}, optionIDs(h.dispatcher.last()))

	stored, err := h.sessions.SelectedRole(ctx, landlordPhone)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSwitchRoleDeletesRoleAndFlowState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.accounts.CreateTenant(ctx, &domain.Tenant{Name: "Demo Landlord", Phone: landlordPhone}))
	require.NoError(t, h.tap(landlordPhone, role.Tenant.SelectionID()))
	require.NoError(t, h.sessions.Save(ctx, session.NamespaceOwner, landlordPhone, session.Bare("stale")))

	require.NoError(t, h.text(landlordPhone, "  Switch   ROLE "))
	assert.Equal(t, switchRoleAck, bodyOf(h.dispatcher.last()))

	snapshot, err := h.sessions.Snapshot(ctx, landlordPhone)
	require.NoError(t, err)
	assert.Empty(t, snapshot)

	h.dispatcher.reset()
	require.NoError(t, h.text(landlordPhone, "hi"))
	assert.Equal(t, []string{role.Tenant.SelectionID(), role.PropertyOwner.SelectionID()}, optionIDs(h.dispatcher.last()))
}

func TestExpiredFlowStateBehavesLikeFreshSender(t *testing.T) {
	h := newHarness(t, withFlowTTL(50*time.Millisecond))

	require.NoError(t, h.tap(tenantPhone, OptionNewRequest))
	assert.Equal(t, TenantAwaitingDescription, h.state(session.NamespaceTenant, tenantPhone).Tag)

	time.Sleep(120 * time.Millisecond)
	require.NoError(t, h.text(tenantPhone, "The kitchen tap is leaking"))

	reqs, err := h.requests.ListByTenant(context.Background(), h.data.Tenant.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, reqs)
	assert.Equal(t, []string{OptionNewRequest, OptionViewRequests, OptionViewTenancy}, optionIDs(h.dispatcher.last()))
}

func TestMenuKeepsStateAndDoneClearsIt(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.tap(tenantPhone, OptionNewRequest))

	require.NoError(t, h.text(tenantPhone, "MENU"))
	assert.Equal(t, []string{OptionNewRequest, OptionViewRequests, OptionViewTenancy}, optionIDs(h.dispatcher.last()))
	assert.Equal(t, TenantAwaitingDescription, h.state(session.NamespaceTenant, tenantPhone).Tag)

	require.NoError(t, h.text(tenantPhone, "Done"))
	assert.Equal(t, closingMessage, bodyOf(h.dispatcher.last()))
	assert.True(t, h.state(session.NamespaceTenant, tenantPhone).IsZero())
}

func TestUnknownButtonShowsMenu(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.tap(managerPhone, "something_else"))
	assert.Equal(t, []string{OptionFMViewRequests, OptionFMAcknowledge, OptionFMResolveUpdate}, optionIDs(h.dispatcher.last()))
}

func TestInvalidEventsAreRejectedBeforeRouting(t *testing.T) {
	h := newHarness(t)

	err := h.router.Handle(context.Background(), event.TextEvent{From: tenantPhone, MessageID: "m1"})
	var vErr pkgError.ValidationError
	require.ErrorAs(t, err, &vErr)

	err = h.router.Handle(context.Background(), event.TextEvent{From: "not-a-phone", MessageID: "m2", Body: "hi"})
	require.ErrorAs(t, err, &vErr)

	err = h.router.Handle(context.Background(), nil)
	require.ErrorAs(t, err, &vErr)

	assert.Empty(t, h.dispatcher.all())
	assert.EqualValues(t, 3, h.monitor.GetStats().TotalErrors)
}

func TestRouteHandlesOnlyTheFirstEvent(t *testing.T) {
	h := newHarness(t)

	h.router.Route(context.Background(), []event.Event{
		event.TextEvent{From: tenantPhone, MessageID: "m1", Body: "hi"},
		event.TextEvent{From: managerPhone, MessageID: "m2", Body: "hi"},
	})
	h.router.Route(context.Background(), nil)

	sent := h.dispatcher.all()
	require.Len(t, sent, 1)
	assert.Equal(t, tenantPhone, sent[0].msg.Recipient())
}

func TestChannelFailureDoesNotRollBackState(t *testing.T) {
	h := newHarness(t)
	h.dispatcher.fail = &pkgError.ChannelError{Kind: pkgError.ChannelUnavailable, Retryable: true}

	require.NoError(t, h.tap(tenantPhone, OptionNewRequest))
	assert.Equal(t, TenantAwaitingDescription, h.state(session.NamespaceTenant, tenantPhone).Tag)
	assert.Len(t, h.dispatcher.all(), 1)
}

func TestInboundMessagesAreLogged(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.text("08011111111", "hello there"))

	logs, err := h.chatLog.ListByPhone(context.Background(), tenantPhone, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.DirectionInbound, logs[0].Direction)
	assert.Equal(t, "hello there", logs[0].Content)
	assert.True(t, logs[0].Simulated)
}

func TestMalformedStoredStateIsTreatedAsFresh(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Set(context.Background(), session.Key(session.NamespaceTenant, tenantPhone), "{broken", time.Minute))

	require.NoError(t, h.text(tenantPhone, "hi"))
	assert.Equal(t, []string{OptionNewRequest, OptionViewRequests, OptionViewTenancy}, optionIDs(h.dispatcher.last()))
}

var _ channel.Dispatcher = (*recordingDispatcher)(nil)

func TestRouterRecordsResolvedRole(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.accounts.CreateTenant(context.Background(), &domain.Tenant{Name: "Demo Landlord", Phone: landlordPhone}))

	require.NoError(t, h.text(tenantPhone, "hi"))
	require.NoError(t, h.text(landlordPhone, "hi"))

	var routes []chatmonitor.Event
	for _, e := range h.monitor.GetStats().RecentEvents {
		if e.Stage == chatmonitor.StageRoute {
			routes = append(routes, e)
		}
	}
	require.Len(t, routes, 2)

	assert.Equal(t, tenantPhone, routes[0].Sender)
	assert.Equal(t, string(role.Tenant), routes[0].Role)
	assert.Equal(t, "true", routes[0].Metadata["first_contact"])
	assert.Equal(t, "false", routes[0].Metadata["role_prompt"])

	assert.Equal(t, landlordPhone, routes[1].Sender)
	assert.Equal(t, "true", routes[1].Metadata["role_prompt"])
	assert.Zero(t, h.monitor.GetStats().TotalErrors)
}
