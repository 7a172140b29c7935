package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AzielCF/az-estate/estate/domain"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/event"
	"github.com/AzielCF/az-estate/messaging/domain/role"
	"github.com/AzielCF/az-estate/messaging/domain/session"
)

// Keywords understood in every flow.
const (
	KeywordDone       = "done"
	KeywordMenu       = "menu"
	KeywordSwitchRole = "switch role"
)

const menuFooter = "Reply 'menu' anytime, 'done' to finish"

// Turn is one inbound event as seen by a flow.
type Turn struct {
	Sender       string
	Event        event.Event
	State        session.State
	Accounts     domain.Accounts
	FirstContact bool
	Now          time.Time
}

// Text is the trimmed body of a text event, "" for button taps.
func (t Turn) Text() string {
	if e, ok := t.Event.(event.TextEvent); ok {
		return strings.TrimSpace(e.Body)
	}
	return ""
}

// Option is the tapped button id, "" for text events.
func (t Turn) Option() string {
	if e, ok := t.Event.(event.InteractiveEvent); ok {
		return e.OptionID
	}
	return ""
}

func (t Turn) IsText() bool {
	return t.Event != nil && t.Event.Kind() == event.KindText
}

// Outcome is what a flow decided for one turn. Next and Clear are mutually
// exclusive; with neither set the stored state is left untouched.
type Outcome struct {
	Next    *session.State
	Clear   bool
	Replies []channel.Outbound
	// After runs once the replies were handed to the dispatcher.
	After func(ctx context.Context)
}

func stay(replies ...channel.Outbound) Outcome {
	return Outcome{Replies: replies}
}

func moveTo(st session.State, replies ...channel.Outbound) Outcome {
	return Outcome{Next: &st, Replies: replies}
}

func finish(replies ...channel.Outbound) Outcome {
	return Outcome{Clear: true, Replies: replies}
}

// Flow is the conversation engine of one role.
type Flow interface {
	Role() role.Role
	Namespace() session.Namespace
	Menu(turn Turn) channel.Outbound
	Handle(ctx context.Context, turn Turn) (Outcome, error)
}

func text(to, body string) channel.Text {
	return channel.Text{To: to, Body: body}
}

func buttons(to, body string, options ...channel.Button) channel.Buttons {
	return channel.Buttons{To: to, Body: body, Footer: menuFooter, Options: options}
}

func isKeyword(s, keyword string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(s), " "), keyword)
}

// pickIndex parses a 1-based list choice. ok is false when s is not a number
// or is out of range.
func pickIndex(s string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "#")))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

// parseID accepts "12" or "#12".
func parseID(s string) (uint, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func requestLine(i int, req domain.ServiceRequest, now time.Time) string {
	return fmt.Sprintf("%d. #%d %s - %s (%s)", i+1, req.ID, req.Description, req.Status.Label(), age(req.CreatedAt, now))
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return "there"
}
