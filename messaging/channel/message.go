package channel

import (
	"fmt"
	"strings"
)

const (
	TypeText     = "text"
	TypeButtons  = "buttons"
	TypeTemplate = "template"

	// MaxButtons is the provider limit for reply buttons on one message.
	MaxButtons = 3
	// MaxButtonTitle is the provider limit for a reply button label.
	MaxButtonTitle = 20

	DefaultLanguage = "en"
)

// Button is one selectable option: ID comes back in the inbound event.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Outbound is the closed set of messages the dispatcher can send.
type Outbound interface {
	Recipient() string
	Type() string
	// Preview is a plain text rendering used for logs and the chat log.
	Preview() string
	outbound()
}

type Text struct {
	To   string
	Body string
}

func (m Text) Recipient() string { return m.To }
func (m Text) Type() string      { return TypeText }
func (m Text) Preview() string   { return m.Body }
func (Text) outbound()           {}

// Buttons is an interactive reply-button menu.
type Buttons struct {
	To      string
	Body    string
	Footer  string
	Options []Button
}

func (m Buttons) Recipient() string { return m.To }
func (m Buttons) Type() string      { return TypeButtons }
func (m Buttons) Preview() string {
	titles := make([]string, len(m.Options))
	for i, o := range m.Options {
		titles[i] = o.Title
	}
	return fmt.Sprintf("%s [%s]", m.Body, strings.Join(titles, " | "))
}
func (Buttons) outbound() {}

// Template is a pre-approved provider template. Params fill the body
// placeholders in order; Buttons carry the quick reply payloads in order.
type Template struct {
	To       string
	Name     string
	Language string
	Params   []string
	Buttons  []Button
}

func (m Template) Recipient() string { return m.To }
func (m Template) Type() string      { return TypeTemplate }
func (m Template) Preview() string {
	out := fmt.Sprintf("template %s(%s)", m.Name, strings.Join(m.Params, ", "))
	if len(m.Buttons) > 0 {
		ids := make([]string, len(m.Buttons))
		for i, b := range m.Buttons {
			ids[i] = b.ID
		}
		out += " [" + strings.Join(ids, " | ") + "]"
	}
	return out
}

func (Template) outbound() {}
