package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookBody = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550000000", "phone_number_id": "1098"},
        "messages": [
          {"from": "2348012345678", "id": "wamid.1", "timestamp": "1700000000", "type": "text", "text": {"body": "menu"}},
          {"from": "2348012345678", "id": "wamid.2", "timestamp": "1700000001", "type": "interactive",
           "interactive": {"type": "button_reply", "button_reply": {"id": "new_service_request", "title": "New Request"}}},
          {"from": "2348012345678", "id": "wamid.3", "timestamp": "1700000002", "type": "button",
           "button": {"payload": "confirm_resolved:12", "text": "Yes"}},
          {"from": "2348012345678", "id": "wamid.4", "timestamp": "1700000003", "type": "image"}
        ]
      }
    }]
  }]
}`

func TestParseWebhook(t *testing.T) {
	events, err := ParseWebhook([]byte(webhookBody))
	require.NoError(t, err)
	require.Len(t, events, 3)

	text, ok := events[0].(TextEvent)
	require.True(t, ok)
	assert.Equal(t, "menu", text.Body)
	assert.Equal(t, KindText, text.Kind())
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), text.ReceivedAt())

	reply, ok := events[1].(InteractiveEvent)
	require.True(t, ok)
	assert.Equal(t, "new_service_request", reply.OptionID)
	assert.Equal(t, KindInteractive, reply.Kind())

	quick, ok := events[2].(InteractiveEvent)
	require.True(t, ok)
	assert.Equal(t, "confirm_resolved:12", quick.OptionID)
	assert.Equal(t, "Yes", quick.Title)
	assert.Equal(t, "wamid.3", quick.ID())
}

func TestParseWebhookStatusOnly(t *testing.T) {
	events, err := ParseWebhook([]byte(`{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"statuses":[{"id":"x"}]}}]}]}`))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseWebhookInvalidJSON(t *testing.T) {
	_, err := ParseWebhook([]byte(`{`))
	assert.Error(t, err)
}

func TestToEventRejectsIncompleteBodies(t *testing.T) {
	for _, msg := range []InboundMessage{
		{From: "1", Type: "text"},
		{From: "1", Type: "interactive"},
		{From: "1", Type: "interactive", Interactive: &InteractiveBody{Type: "button_reply"}},
		{From: "1", Type: "button"},
	} {
		_, ok := msg.ToEvent()
		assert.False(t, ok, msg.Type)
	}
}

func TestContent(t *testing.T) {
	assert.Equal(t, "hello", Content(TextEvent{Body: "hello"}))
	assert.Equal(t, "Yes [confirm_resolved:1]", Content(InteractiveEvent{OptionID: "confirm_resolved:1", Title: "Yes"}))
	assert.Equal(t, "[fm_update]", Content(InteractiveEvent{OptionID: "fm_update"}))
}
