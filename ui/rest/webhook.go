package rest

import (
	"context"

	"github.com/AzielCF/az-estate/messaging/domain/event"
	"github.com/AzielCF/az-estate/pkg/msgworker"
	"github.com/AzielCF/az-estate/pkg/phone"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// EventRouter is the part of the messaging engine the HTTP layer talks to.
type EventRouter interface {
	Route(ctx context.Context, events []event.Event)
	Handle(ctx context.Context, evt event.Event) error
}

type Webhook struct {
	Router      EventRouter
	Pool        *msgworker.Pool
	Normalizer  phone.Normalizer
	VerifyToken string
}

func InitRestWebhook(app fiber.Router, router EventRouter, pool *msgworker.Pool, normalizer phone.Normalizer, verifyToken string) Webhook {
	rest := Webhook{Router: router, Pool: pool, Normalizer: normalizer, VerifyToken: verifyToken}
	app.Get("/webhook", rest.Verify)
	app.Post("/webhook", rest.Receive)
	return rest
}

// Verify answers the provider subscription handshake.
func (handler *Webhook) Verify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	if mode != "subscribe" || handler.VerifyToken == "" || token != handler.VerifyToken {
		logrus.Warnf("[WEBHOOK] Verification rejected (mode=%q)", mode)
		return c.SendStatus(fiber.StatusForbidden)
	}
	return c.SendString(c.Query("hub.challenge"))
}

// Receive acknowledges every delivery with 200 and hands the batch to the
// worker of its sender. Nothing that happens afterwards reaches the provider.
func (handler *Webhook) Receive(c *fiber.Ctx) error {
	events, err := event.ParseWebhook(c.Body())
	if err != nil {
		logrus.WithError(err).Warn("[WEBHOOK] Unreadable delivery ignored")
		return c.SendStatus(fiber.StatusOK)
	}
	if len(events) == 0 {
		return c.SendStatus(fiber.StatusOK)
	}

	key := handler.Normalizer.Normalize(events[0].Sender())
	job := msgworker.Job{
		Key:  key,
		Kind: string(events[0].Kind()),
		Handler: func(ctx context.Context) error {
			handler.Router.Route(ctx, events)
			return nil
		},
	}
	if handler.Pool == nil {
		go job.Handler(context.Background())
	} else if !handler.Pool.TryDispatch(job) {
		logrus.Warnf("[WEBHOOK] Worker queue full, dropping event %s from %s", events[0].ID(), key)
	}
	return c.SendStatus(fiber.StatusOK)
}
