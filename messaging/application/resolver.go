package application

import (
	"context"
	"strings"

	"github.com/AzielCF/az-estate/estate/domain"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/event"
	"github.com/AzielCF/az-estate/messaging/domain/role"
	"github.com/AzielCF/az-estate/messaging/domain/session"
	"github.com/sirupsen/logrus"
)

// Resolution is the role an inbound event will be handled as.
type Resolution struct {
	Sender         string
	Role           role.Role
	IsFirstContact bool
	Accounts       domain.Accounts
	// Halt means the event was fully answered by Prompt.
	Halt   bool
	Prompt channel.Outbound
	// Selected is set when this very event picked the role.
	Selected bool
}

type RoleResolver struct {
	accounts domain.AccountRepository
	sessions *session.Manager
}

func NewRoleResolver(accounts domain.AccountRepository, sessions *session.Manager) *RoleResolver {
	return &RoleResolver{accounts: accounts, sessions: sessions}
}

// EligibleRoles lists the roles backed by an account, in menu order.
func EligibleRoles(acc domain.Accounts) []role.Role {
	var roles []role.Role
	for _, r := range role.Selectable() {
		if holds(acc, r) {
			roles = append(roles, r)
		}
	}
	return roles
}

func holds(acc domain.Accounts, r role.Role) bool {
	switch r {
	case role.Tenant:
		return acc.Tenant != nil
	case role.FacilityManager:
		return acc.FacilityManager != nil
	case role.PropertyOwner:
		return acc.Landlord != nil
	}
	return false
}

func NamespaceOf(r role.Role) session.Namespace {
	switch r {
	case role.Tenant:
		return session.NamespaceTenant
	case role.FacilityManager:
		return session.NamespaceFacility
	case role.PropertyOwner:
		return session.NamespaceOwner
	}
	return session.NamespaceDefault
}

// Resolve expects an already normalized sender. Lookup failures degrade to
// role.Unknown, only session store failures are returned.
func (r *RoleResolver) Resolve(ctx context.Context, sender string, evt event.Event) (Resolution, error) {
	res := Resolution{Sender: sender, Role: role.Unknown}

	acc, err := r.accounts.FindAccounts(ctx, sender)
	if err != nil {
		logrus.WithError(err).Warnf("[RESOLVER] account lookup for %s failed, treating as unknown", sender)
		acc = domain.Accounts{}
	}
	res.Accounts = acc
	eligible := EligibleRoles(acc)

	switch {
	case len(eligible) == 0:
		res.Role = role.Unknown

	case isConfirmation(evt) && contains(eligible, role.Tenant):
		// Confirmation buttons only make sense to the tenant flow.
		res.Role = role.Tenant

	case len(eligible) == 1:
		res.Role = eligible[0]

	default:
		if picked, ok := selection(evt); ok && contains(eligible, picked) {
			if err := r.sessions.RememberRole(ctx, sender, string(picked)); err != nil {
				return res, err
			}
			logrus.Infof("[RESOLVER] %s selected role %s", sender, picked)
			res.Role, res.Selected = picked, true
			break
		}

		stored, err := r.sessions.SelectedRole(ctx, sender)
		if err != nil {
			return res, err
		}
		if current, ok := role.Parse(stored); ok && contains(eligible, current) {
			res.Role = current
			break
		}
		if stored != "" {
			logrus.Infof("[RESOLVER] %s is no longer eligible for %q, asking again", sender, stored)
			if err := r.sessions.ForgetRole(ctx, sender); err != nil {
				return res, err
			}
		}
		res.Halt = true
		res.Prompt = selectionMenu(sender, acc, eligible)
		return res, nil
	}

	st, err := r.sessions.Load(ctx, NamespaceOf(res.Role), sender)
	if err != nil {
		return res, err
	}
	res.IsFirstContact = st.IsZero()
	return res, nil
}

func selectionMenu(sender string, acc domain.Accounts, eligible []role.Role) channel.Outbound {
	options := make([]channel.Button, 0, len(eligible))
	for _, r := range eligible {
		options = append(options, channel.Button{ID: r.SelectionID(), Title: r.Label()})
	}
	return channel.Buttons{
		To:      sender,
		Body:    "Hi " + firstName(displayName(acc)) + ", you have more than one account with us. Which one are you using today?",
		Footer:  "Reply 'switch role' later to change",
		Options: options,
	}
}

func displayName(acc domain.Accounts) string {
	switch {
	case acc.Tenant != nil:
		return acc.Tenant.Name
	case acc.FacilityManager != nil:
		return acc.FacilityManager.Name
	case acc.Landlord != nil:
		return acc.Landlord.Name
	}
	return ""
}

func selection(evt event.Event) (role.Role, bool) {
	e, ok := evt.(event.InteractiveEvent)
	if !ok {
		return "", false
	}
	return role.FromSelectionID(e.OptionID)
}

func isConfirmation(evt event.Event) bool {
	e, ok := evt.(event.InteractiveEvent)
	return ok && (strings.HasPrefix(e.OptionID, confirmPrefix) || strings.HasPrefix(e.OptionID, rejectPrefix))
}

func contains(roles []role.Role, r role.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}
