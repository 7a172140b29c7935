package channel

import (
	"fmt"
	"strconv"

	pkgError "github.com/AzielCF/az-estate/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Payload is the JSON body of a Cloud API "send message" call.
type Payload struct {
	MessagingProduct string           `json:"messaging_product"`
	RecipientType    string           `json:"recipient_type"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *TextPayload     `json:"text,omitempty"`
	Interactive      *Interactive     `json:"interactive,omitempty"`
	Template         *TemplatePayload `json:"template,omitempty"`
}

type TextPayload struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type Interactive struct {
	Type   string            `json:"type"`
	Body   InteractiveText   `json:"body"`
	Footer *InteractiveText  `json:"footer,omitempty"`
	Action InteractiveAction `json:"action"`
}

type InteractiveText struct {
	Text string `json:"text"`
}

type InteractiveAction struct {
	Buttons []ReplyButton `json:"buttons"`
}

type ReplyButton struct {
	Type  string `json:"type"`
	Reply Button `json:"reply"`
}

type TemplatePayload struct {
	Name       string              `json:"name"`
	Language   TemplateLanguage    `json:"language"`
	Components []TemplateComponent `json:"components,omitempty"`
}

type TemplateLanguage struct {
	Code string `json:"code"`
}

type TemplateComponent struct {
	Type       string              `json:"type"`
	SubType    string              `json:"sub_type,omitempty"`
	Index      string              `json:"index,omitempty"`
	Parameters []TemplateParameter `json:"parameters"`
}

type TemplateParameter struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// BuildPayload validates msg and converts it to the provider wire shape.
// Both dispatcher modes go through it so a malformed message fails the same way.
func BuildPayload(msg Outbound) (Payload, error) {
	if msg == nil {
		return Payload{}, pkgError.ValidationError("message is required")
	}
	if err := validation.Validate(msg.Recipient(), validation.Required); err != nil {
		return Payload{}, pkgError.ValidationError("recipient: " + err.Error())
	}

	p := Payload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               msg.Recipient(),
	}

	switch m := msg.(type) {
	case Text:
		if err := validation.Validate(m.Body, validation.Required, validation.Length(1, 4096)); err != nil {
			return Payload{}, pkgError.ValidationError("text body: " + err.Error())
		}
		p.Type = "text"
		p.Text = &TextPayload{Body: m.Body}

	case Buttons:
		err := validation.Errors{
			"body":    validation.Validate(m.Body, validation.Required, validation.Length(1, 1024)),
			"options": validation.Validate(m.Options, validation.Required, validation.Length(1, MaxButtons)),
			"footer":  validation.Validate(m.Footer, validation.Length(0, 60)),
		}.Filter()
		if err != nil {
			return Payload{}, pkgError.ValidationError("buttons: " + err.Error())
		}
		p.Type = "interactive"
		p.Interactive = &Interactive{
			Type: "button",
			Body: InteractiveText{Text: m.Body},
		}
		if m.Footer != "" {
			p.Interactive.Footer = &InteractiveText{Text: m.Footer}
		}
		for _, o := range m.Options {
			if o.ID == "" {
				return Payload{}, pkgError.ValidationError("buttons: option id is required")
			}
			p.Interactive.Action.Buttons = append(p.Interactive.Action.Buttons, ReplyButton{
				Type:  "reply",
				Reply: Button{ID: o.ID, Title: truncate(o.Title, MaxButtonTitle)},
			})
		}

	case Template:
		err := validation.Errors{
			"name":    validation.Validate(m.Name, validation.Required),
			"buttons": validation.Validate(m.Buttons, validation.Length(0, MaxButtons)),
		}.Filter()
		if err != nil {
			return Payload{}, pkgError.ValidationError("template: " + err.Error())
		}
		lang := m.Language
		if lang == "" {
			lang = DefaultLanguage
		}
		tpl := &TemplatePayload{Name: m.Name, Language: TemplateLanguage{Code: lang}}
		if len(m.Params) > 0 {
			body := TemplateComponent{Type: "body"}
			for _, param := range m.Params {
				body.Parameters = append(body.Parameters, TemplateParameter{Type: "text", Text: param})
			}
			tpl.Components = append(tpl.Components, body)
		}
		for i, b := range m.Buttons {
			tpl.Components = append(tpl.Components, TemplateComponent{
				Type:       "button",
				SubType:    "quick_reply",
				Index:      strconv.Itoa(i),
				Parameters: []TemplateParameter{{Type: "payload", Payload: b.ID}},
			})
		}
		p.Type = "template"
		p.Template = tpl

	default:
		return Payload{}, pkgError.ValidationError(fmt.Sprintf("unsupported message type %T", msg))
	}

	return p, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
