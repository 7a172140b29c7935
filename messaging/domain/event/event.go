package event

import "time"

type Kind string

const (
	KindText        Kind = "text"
	KindInteractive Kind = "interactive"
)

// Event is the closed set of inbound messages the engine understands.
// Only TextEvent and InteractiveEvent implement it.
type Event interface {
	Sender() string
	Kind() Kind
	ID() string
	ReceivedAt() time.Time
	event()
}

// TextEvent is a free text message.
type TextEvent struct {
	From      string
	MessageID string
	Body      string
	Timestamp time.Time
}

func (e TextEvent) Sender() string        { return e.From }
func (e TextEvent) Kind() Kind            { return KindText }
func (e TextEvent) ID() string            { return e.MessageID }
func (e TextEvent) ReceivedAt() time.Time { return e.Timestamp }
func (TextEvent) event()                  {}

// InteractiveEvent is a button tap: a reply button or a template quick reply.
type InteractiveEvent struct {
	From      string
	MessageID string
	OptionID  string
	Title     string
	Timestamp time.Time
}

func (e InteractiveEvent) Sender() string        { return e.From }
func (e InteractiveEvent) Kind() Kind            { return KindInteractive }
func (e InteractiveEvent) ID() string            { return e.MessageID }
func (e InteractiveEvent) ReceivedAt() time.Time { return e.Timestamp }
func (InteractiveEvent) event()                  {}

// Content returns what the sender actually said or tapped, for logging.
func Content(e Event) string {
	switch v := e.(type) {
	case TextEvent:
		return v.Body
	case InteractiveEvent:
		if v.Title != "" {
			return v.Title + " [" + v.OptionID + "]"
		}
		return "[" + v.OptionID + "]"
	}
	return ""
}

// SimulatorRequest is an inbound message typed by hand in the simulator UI or CLI.
// Exactly one of Text and ButtonID is set.
type SimulatorRequest struct {
	From        string `json:"from"`
	Text        string `json:"text,omitempty"`
	ButtonID    string `json:"button_id,omitempty"`
	ButtonTitle string `json:"button_title,omitempty"`
}

func (r SimulatorRequest) ToEvent(messageID string, at time.Time) Event {
	if r.ButtonID != "" {
		return InteractiveEvent{From: r.From, MessageID: messageID, OptionID: r.ButtonID, Title: r.ButtonTitle, Timestamp: at}
	}
	return TextEvent{From: r.From, MessageID: messageID, Body: r.Text, Timestamp: at}
}
