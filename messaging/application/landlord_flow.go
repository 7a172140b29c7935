package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AzielCF/az-estate/estate/domain"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/role"
	"github.com/AzielCF/az-estate/messaging/domain/session"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	OptionLLTenancies   = "ll_view_tenancies"
	OptionLLMaintenance = "ll_view_maintenance"
	OptionLLKYCLink     = "ll_kyc_link"
)

const (
	DefaultKYCLinkTTL = 72 * time.Hour
	DefaultPageSize   = 5
)

type LandlordSettings struct {
	PortalURL  string
	KYCLinkTTL time.Duration
	PageSize   int
}

// LandlordFlow is button driven and keeps no conversation state of its own.
type LandlordFlow struct {
	properties domain.PropertyRepository
	requests   domain.RequestRepository
	kyc        domain.KYCRepository
	settings   LandlordSettings
}

func NewLandlordFlow(properties domain.PropertyRepository, requests domain.RequestRepository, kyc domain.KYCRepository, settings LandlordSettings) *LandlordFlow {
	if settings.KYCLinkTTL <= 0 {
		settings.KYCLinkTTL = DefaultKYCLinkTTL
	}
	if settings.PageSize <= 0 {
		settings.PageSize = DefaultPageSize
	}
	settings.PortalURL = strings.TrimRight(settings.PortalURL, "/")
	return &LandlordFlow{properties: properties, requests: requests, kyc: kyc, settings: settings}
}

func (f *LandlordFlow) Role() role.Role              { return role.PropertyOwner }
func (f *LandlordFlow) Namespace() session.Namespace { return session.NamespaceOwner }

func (f *LandlordFlow) Menu(turn Turn) channel.Outbound {
	name := ""
	if turn.Accounts.Landlord != nil {
		name = turn.Accounts.Landlord.Name
	}
	return buttons(turn.Sender, "Hello "+firstName(name)+", how can we help with your properties today?",
		channel.Button{ID: OptionLLTenancies, Title: "Tenancies"},
		channel.Button{ID: OptionLLMaintenance, Title: "Maintenance"},
		channel.Button{ID: OptionLLKYCLink, Title: "KYC Link"},
	)
}

func (f *LandlordFlow) Handle(ctx context.Context, turn Turn) (Outcome, error) {
	landlord := turn.Accounts.Landlord
	if landlord == nil {
		return finish(f.Menu(turn)), nil
	}
	if !turn.State.IsZero() {
		logrus.Warnf("[FLOW:LANDLORD] unexpected state %q for %s, resetting", turn.State.Tag, turn.Sender)
		return finish(f.Menu(turn)), nil
	}

	switch turn.Option() {
	case OptionLLTenancies:
		return f.tenancies(ctx, turn, *landlord)
	case OptionLLMaintenance:
		return f.maintenance(ctx, turn, *landlord)
	case OptionLLKYCLink:
		return f.kycLink(ctx, turn, *landlord)
	}
	return stay(f.Menu(turn)), nil
}

// collect walks repository pages until maxListLines records were gathered or
// the records run out. It returns the records and the total count.
func collect[T any](pageSize int, fetch func(domain.Page) ([]T, int64, error)) ([]T, int, error) {
	var out []T
	var total int64
	for page := 1; len(out) < maxListLines; page++ {
		items, n, err := fetch(domain.Page{Number: page, Size: pageSize})
		if err != nil {
			return nil, 0, err
		}
		total = n
		out = append(out, items...)
		if len(items) < pageSize || int64(len(out)) >= total {
			break
		}
	}
	return out, int(total), nil
}

func (f *LandlordFlow) tenancies(ctx context.Context, turn Turn, landlord domain.Landlord) (Outcome, error) {
	rows, total, err := collect(f.settings.PageSize, func(p domain.Page) ([]domain.Tenancy, int64, error) {
		return f.properties.TenanciesByLandlord(ctx, landlord.ID, p)
	})
	if err != nil {
		return Outcome{}, err
	}
	if total == 0 {
		return stay(text(turn.Sender, "There are no tenancies on your properties yet.")), nil
	}

	lines := make([]string, len(rows))
	for i, t := range rows {
		status := "active"
		if !t.Active {
			status = "ended"
		}
		lines[i] = fmt.Sprintf("%d. %s - %s, rent %s, expires %s (%s)", i+1, t.TenantName, t.PropertyName, money(t.RentAmount), date(t.EndDate), status)
	}
	return stay(text(turn.Sender, numbered(fmt.Sprintf("Tenancies (%d):", total), lines, total))), nil
}

func (f *LandlordFlow) maintenance(ctx context.Context, turn Turn, landlord domain.Landlord) (Outcome, error) {
	rows, total, err := collect(f.settings.PageSize, func(p domain.Page) ([]domain.ServiceRequest, int64, error) {
		return f.requests.ListByLandlord(ctx, landlord.ID, p)
	})
	if err != nil {
		return Outcome{}, err
	}
	if total == 0 {
		return stay(text(turn.Sender, "No maintenance requests have been logged on your properties.")), nil
	}

	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("%d. #%d %s at %s - %s (%s)", i+1, r.ID, r.Description, r.PropertyName, r.Status.Label(), age(r.CreatedAt, turn.Now))
	}
	return stay(text(turn.Sender, numbered(fmt.Sprintf("Maintenance requests (%d):", total), lines, total))), nil
}

// kycLink hands out the landlord's current verification link, creating one
// only when no unexpired link exists.
func (f *LandlordFlow) kycLink(ctx context.Context, turn Turn, landlord domain.Landlord) (Outcome, error) {
	if landlord.KYCVerified {
		return stay(text(turn.Sender, "Your identity verification is already complete. Thank you!")), nil
	}

	link, err := f.kyc.ActiveLink(ctx, landlord.ID, turn.Now)
	switch {
	case err == nil:
		logrus.Debugf("[FLOW:LANDLORD] reusing kyc link %d for landlord %d", link.ID, landlord.ID)
	case errors.Is(err, domain.ErrNotFound):
		token := uuid.NewString()
		link = domain.KYCLink{
			LandlordID: landlord.ID,
			Token:      token,
			URL:        f.settings.PortalURL + "/kyc/" + token,
			ExpiresAt:  turn.Now.Add(f.settings.KYCLinkTTL),
		}
		if err := f.kyc.CreateLink(ctx, &link); err != nil {
			return Outcome{}, err
		}
		logrus.Infof("[FLOW:LANDLORD] kyc link %d created for landlord %d", link.ID, landlord.ID)
	default:
		return Outcome{}, err
	}

	return stay(text(turn.Sender, fmt.Sprintf("Complete your verification here: %s\nThis link expires %s.", link.URL, age(link.ExpiresAt, turn.Now)))), nil
}
