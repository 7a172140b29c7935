package rest

import (
	"strings"

	"github.com/AzielCF/az-estate/messaging/domain/session"
	pkgError "github.com/AzielCF/az-estate/pkg/error"
	"github.com/AzielCF/az-estate/pkg/phone"
	"github.com/AzielCF/az-estate/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Session struct {
	Manager    *session.Manager
	Normalizer phone.Normalizer
}

// SessionEntry is one stored key of a sender. Tag is filled for flow keys
// whose value decodes.
type SessionEntry struct {
	Key string `json:"key"`
	Raw string `json:"raw"`
	Tag string `json:"tag,omitempty"`
}

func InitRestSession(app fiber.Router, manager *session.Manager, normalizer phone.Normalizer) Session {
	rest := Session{Manager: manager, Normalizer: normalizer}
	app.Get("/sessions/:phone", rest.GetSession)
	app.Delete("/sessions/:phone", rest.ResetSession)
	return rest
}

func (handler *Session) sender(c *fiber.Ctx) string {
	sender := handler.Normalizer.Normalize(c.Params("phone"))
	if sender == "" {
		utils.PanicIfNeeded(pkgError.ValidationError("phone must contain digits"))
	}
	return sender
}

func (handler *Session) GetSession(c *fiber.Ctx) error {
	sender := handler.sender(c)

	snapshot, err := handler.Manager.Snapshot(c.UserContext(), sender)
	utils.PanicIfNeeded(err)

	entries := make([]SessionEntry, 0, len(snapshot))
	for _, key := range session.Keys(sender) {
		raw, ok := snapshot[key]
		if !ok {
			continue
		}
		entry := SessionEntry{Key: key, Raw: raw}
		if !strings.HasPrefix(key, string(session.NamespaceRole)+"_") {
			if st, err := session.Decode(raw); err == nil {
				entry.Tag = string(st.Tag)
			}
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		utils.PanicIfNeeded(pkgError.NotFoundError("no session state for " + sender))
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Session retrieved",
		Results: fiber.Map{
			"sender":  sender,
			"entries": entries,
		},
	})
}

func (handler *Session) ResetSession(c *fiber.Ctx) error {
	sender := handler.sender(c)
	utils.PanicIfNeeded(handler.Manager.Reset(c.UserContext(), sender))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Session reset",
		Results: fiber.Map{"sender": sender},
	})
}
