package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/AzielCF/az-estate/estate/domain"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/role"
	"github.com/AzielCF/az-estate/messaging/domain/session"
	"github.com/AzielCF/az-estate/pkg/phone"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAwaitingName     session.Tag = "awaiting_name"
	DefaultAwaitingReferral session.Tag = "awaiting_referral"
)

const (
	OptionLeadRent  = "lead_rent"
	OptionLeadOwner = "lead_owner"
	OptionLeadOther = "lead_other"
)

var leadCategories = map[string]string{
	OptionLeadRent:  "rent",
	OptionLeadOwner: "owner",
	OptionLeadOther: "other",
}

const referralHint = "Send their details as Name:Phone, for example Ada Obi:08012345678, or reply 'done' to finish."

// DefaultFlow talks to senders without an account and captures them as leads.
type DefaultFlow struct {
	leads      domain.LeadRepository
	normalizer phone.Normalizer
}

func NewDefaultFlow(leads domain.LeadRepository, normalizer phone.Normalizer) *DefaultFlow {
	return &DefaultFlow{leads: leads, normalizer: normalizer}
}

func (f *DefaultFlow) Role() role.Role              { return role.Unknown }
func (f *DefaultFlow) Namespace() session.Namespace { return session.NamespaceDefault }

func (f *DefaultFlow) Menu(turn Turn) channel.Outbound {
	return buttons(turn.Sender, "Welcome! We manage homes and properties. What are you interested in?",
		channel.Button{ID: OptionLeadRent, Title: "Rent a Home"},
		channel.Button{ID: OptionLeadOwner, Title: "List My Property"},
		channel.Button{ID: OptionLeadOther, Title: "Something Else"},
	)
}

func (f *DefaultFlow) Handle(ctx context.Context, turn Turn) (Outcome, error) {
	if opt := turn.Option(); opt != "" {
		category, ok := leadCategories[opt]
		if !ok {
			return stay(f.Menu(turn)), nil
		}
		next := session.Step(DefaultAwaitingName, session.Payload{Fields: map[string]string{"category": category}})
		return moveTo(next, text(turn.Sender, "Great! What is your full name?")), nil
	}

	switch turn.State.Tag {
	case "":
		return stay(f.Menu(turn)), nil
	case DefaultAwaitingName:
		return f.captureName(ctx, turn)
	case DefaultAwaitingReferral:
		return f.captureReferral(ctx, turn)
	}

	logrus.Warnf("[FLOW:DEFAULT] unknown state %q for %s, resetting", turn.State.Tag, turn.Sender)
	return finish(f.Menu(turn)), nil
}

func (f *DefaultFlow) captureName(ctx context.Context, turn Turn) (Outcome, error) {
	name := strings.Join(strings.Fields(turn.Text()), " ")
	if len(name) < 2 {
		return stay(text(turn.Sender, "Please tell us your full name.")), nil
	}

	category := turn.State.Field("category")
	lead := domain.Lead{Phone: turn.Sender, Name: name, Category: category}
	if err := f.leads.SaveLead(ctx, &lead); err != nil {
		return Outcome{}, err
	}
	logrus.Infof("[FLOW:DEFAULT] lead %d captured for %s (%s)", lead.ID, turn.Sender, category)

	next := session.Step(DefaultAwaitingReferral, session.Payload{Fields: map[string]string{"name": name, "category": category}})
	body := fmt.Sprintf("Thanks %s, one of our agents will contact you shortly. Do you know someone else who might be interested? %s", firstName(name), referralHint)
	return moveTo(next, text(turn.Sender, body)), nil
}

func (f *DefaultFlow) captureReferral(ctx context.Context, turn Turn) (Outcome, error) {
	name, number, ok := f.parseReferral(turn.Text())
	if !ok {
		return stay(text(turn.Sender, "That does not look right. "+referralHint)), nil
	}

	referral := domain.Referral{ReferrerPhone: turn.Sender, Name: name, Phone: number}
	if err := f.leads.SaveReferral(ctx, &referral); err != nil {
		return Outcome{}, err
	}
	logrus.Infof("[FLOW:DEFAULT] referral %d from %s", referral.ID, turn.Sender)

	return finish(text(turn.Sender, fmt.Sprintf("Thank you! We will reach out to %s.", firstName(name)))), nil
}

// parseReferral reads "Name:Phone". The phone goes through the same
// normalizer as senders so the referral can later be matched.
func (f *DefaultFlow) parseReferral(s string) (string, string, bool) {
	namePart, phonePart, found := strings.Cut(s, ":")
	if !found {
		return "", "", false
	}
	name := strings.Join(strings.Fields(namePart), " ")
	number := f.normalizer.Normalize(phonePart)
	if len(name) < 2 || len(number) < 10 || strings.ContainsAny(phonePart, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return "", "", false
	}
	return name, number, true
}
