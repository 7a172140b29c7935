package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// WebhookPayload is the envelope the Cloud API posts to the webhook.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Metadata         WebhookMetadata   `json:"metadata"`
	Messages         []InboundMessage  `json:"messages"`
	Statuses         []json.RawMessage `json:"statuses,omitempty"`
}

type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// InboundMessage is a single message as delivered by the provider.
type InboundMessage struct {
	From        string           `json:"from"`
	ID          string           `json:"id"`
	Timestamp   string           `json:"timestamp"`
	Type        string           `json:"type"`
	Text        *TextBody        `json:"text,omitempty"`
	Interactive *InteractiveBody `json:"interactive,omitempty"`
	Button      *ButtonBody      `json:"button,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

type InteractiveBody struct {
	Type        string       `json:"type"`
	ButtonReply *ReplyOption `json:"button_reply,omitempty"`
	ListReply   *ReplyOption `json:"list_reply,omitempty"`
}

type ReplyOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ButtonBody is a quick reply tapped on a template message.
type ButtonBody struct {
	Payload string `json:"payload"`
	Text    string `json:"text"`
}

// ParseWebhook decodes a webhook body into events, in delivery order.
// Unsupported message types are skipped with a debug line.
func ParseWebhook(body []byte) ([]Event, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}

	var events []Event
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				evt, ok := msg.ToEvent()
				if !ok {
					logrus.Debugf("[WEBHOOK] Skipping unsupported message type %q from %s", msg.Type, msg.From)
					continue
				}
				events = append(events, evt)
			}
		}
	}
	return events, nil
}

// ToEvent converts one provider message into the engine's closed variant.
func (m InboundMessage) ToEvent() (Event, bool) {
	ts := parseTimestamp(m.Timestamp)
	switch m.Type {
	case "text":
		if m.Text == nil {
			return nil, false
		}
		return TextEvent{From: m.From, MessageID: m.ID, Body: m.Text.Body, Timestamp: ts}, true
	case "interactive":
		if m.Interactive == nil {
			return nil, false
		}
		reply := m.Interactive.ButtonReply
		if reply == nil {
			reply = m.Interactive.ListReply
		}
		if reply == nil {
			return nil, false
		}
		return InteractiveEvent{From: m.From, MessageID: m.ID, OptionID: reply.ID, Title: reply.Title, Timestamp: ts}, true
	case "button":
		if m.Button == nil {
			return nil, false
		}
		return InteractiveEvent{From: m.From, MessageID: m.ID, OptionID: m.Button.Payload, Title: m.Button.Text, Timestamp: ts}, true
	}
	return nil, false
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}
