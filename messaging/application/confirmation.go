package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AzielCF/az-estate/estate/domain"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/sirupsen/logrus"
)

// Quick reply payloads of the service_request_resolved template. The request
// id travels in the payload so the answer never depends on session state.
const (
	confirmPrefix = "confirm_resolved:"
	rejectPrefix  = "reject_resolved:"
)

// Plain text answers accepted when the tenant types instead of tapping.
const (
	answerYes = "yes"
	answerNo  = "no"
)

// confirmation drives the tenant side of a resolved request: asking whether
// the fix worked and acting on the answer.
type confirmation struct {
	requests   domain.RequestRepository
	properties domain.PropertyRepository
	notifier   *Notifier
}

// ask builds the template sent to the tenant right after a request is resolved.
func (c *confirmation) ask(tenant domain.Tenant, req domain.ServiceRequest) channel.Template {
	return channel.Template{
		To:     tenant.Phone,
		Name:   TemplateRequestResolved,
		Params: []string{firstName(tenant.Name), fmt.Sprintf("#%d", req.ID), req.Description},
		Buttons: []channel.Button{
			{ID: confirmPrefix + fmt.Sprint(req.ID), Title: "Yes"},
			{ID: rejectPrefix + fmt.Sprint(req.ID), Title: "No"},
		},
	}
}

// parseAnswer reads a confirmation button id.
func parseAnswer(optionID string) (id uint, accept bool, ok bool) {
	if rest, found := strings.CutPrefix(optionID, confirmPrefix); found {
		id, ok = parseID(rest)
		return id, true, ok
	}
	if rest, found := strings.CutPrefix(optionID, rejectPrefix); found {
		id, ok = parseID(rest)
		return id, false, ok
	}
	return 0, false, false
}

// latest resolves a typed yes/no to the most recently resolved request of the
// tenant. Only one request is expected to await confirmation at a time.
func (c *confirmation) latest(ctx context.Context, tenant domain.Tenant) (uint, bool, error) {
	req, err := c.requests.LatestResolved(ctx, tenant.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return req.ID, true, nil
}

func (c *confirmation) respond(ctx context.Context, tenant domain.Tenant, sender string, requestID uint, accept bool) (Outcome, error) {
	req, err := c.requests.Get(ctx, requestID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && req.TenantID != tenant.ID) {
		return stay(text(sender, fmt.Sprintf("We could not find request #%d on your account.", requestID))), nil
	}
	if err != nil {
		return Outcome{}, err
	}

	target := domain.StatusClosed
	if !accept {
		target = domain.StatusReopened
	}
	if !domain.CanTransition(req.Status, target) {
		return stay(text(sender, fmt.Sprintf("Request #%d is %s, there is nothing to confirm.", req.ID, strings.ToLower(req.Status.Label())))), nil
	}

	updated, err := c.requests.UpdateStatus(ctx, req.ID, target)
	if errors.Is(err, domain.ErrInvalidTransition) {
		return stay(text(sender, fmt.Sprintf("Request #%d was already updated.", req.ID))), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	logrus.Infof("[FLOW:TENANT] request #%d %s by tenant %d", updated.ID, updated.Status, tenant.ID)

	if accept {
		return stay(text(sender, fmt.Sprintf("Great, request #%d is now closed. Thank you for confirming!", updated.ID))), nil
	}

	out := stay(text(sender, fmt.Sprintf("Sorry about that. Request #%d has been reopened and the team has been notified.", updated.ID)))
	out.After = func(ctx context.Context) {
		managers, landlord := requestStakeholders(ctx, c.properties, updated.PropertyID)
		msgs := requestNotifications(managers, landlord, updated, tenant.Name, "Reopened service request")
		sent := c.notifier.Notify(ctx, msgs...)
		logrus.Infof("[FLOW:TENANT] reopened request #%d, %d/%d notifications accepted", updated.ID, sent, len(msgs))
	}
	return out, nil
}
