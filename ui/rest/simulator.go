package rest

import (
	"context"
	"time"

	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/event"
	pkgError "github.com/AzielCF/az-estate/pkg/error"
	"github.com/AzielCF/az-estate/pkg/msgworker"
	"github.com/AzielCF/az-estate/pkg/phone"
	"github.com/AzielCF/az-estate/pkg/utils"
	"github.com/AzielCF/az-estate/validations"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Simulator struct {
	Router     EventRouter
	Dispatcher channel.Dispatcher
	Pool       *msgworker.Pool
	Normalizer phone.Normalizer
}

type SimulatorResponse struct {
	MessageID string `json:"message_id"`
	Sender    string `json:"sender"`
	Kind      string `json:"kind"`
}

func InitRestSimulator(app fiber.Router, router EventRouter, dispatcher channel.Dispatcher, pool *msgworker.Pool, normalizer phone.Normalizer) Simulator {
	rest := Simulator{Router: router, Dispatcher: dispatcher, Pool: pool, Normalizer: normalizer}
	app.Post("/simulator/messages", rest.SendMessage)
	return rest
}

// SendMessage injects an inbound event and waits until the engine is done
// with it, so every simulated reply is already published when it returns.
func (handler *Simulator) SendMessage(c *fiber.Ctx) error {
	if handler.Dispatcher.Mode() != channel.ModeSimulation {
		utils.PanicIfNeeded(pkgError.ForbiddenError("simulator is only available when CHANNEL_SIMULATION=true"))
	}

	var request event.SimulatorRequest
	if err := c.BodyParser(&request); err != nil {
		utils.PanicIfNeeded(pkgError.ValidationError(err.Error()))
	}
	utils.PanicIfNeeded(validations.ValidateSimulatorRequest(c.UserContext(), request))

	evt := request.ToEvent("sim-in-"+uuid.NewString(), time.Now().UTC())
	utils.PanicIfNeeded(handler.process(c.UserContext(), evt))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Event processed",
		Results: SimulatorResponse{
			MessageID: evt.ID(),
			Sender:    handler.Normalizer.Normalize(evt.Sender()),
			Kind:      string(evt.Kind()),
		},
	})
}

// process runs evt on the worker of its sender so it cannot interleave with
// webhook deliveries of the same number.
func (handler *Simulator) process(ctx context.Context, evt event.Event) error {
	if handler.Pool == nil {
		return handler.Router.Handle(ctx, evt)
	}

	done := make(chan error, 1)
	job := msgworker.Job{
		Key:  handler.Normalizer.Normalize(evt.Sender()),
		Kind: "simulator",
		Handler: func(workerCtx context.Context) error {
			err := handler.Router.Handle(workerCtx, evt)
			done <- err
			return err
		},
	}
	if !handler.Pool.TryDispatch(job) {
		return pkgError.InternalServerError("worker queue is full, try again")
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
