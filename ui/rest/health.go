package rest

import (
	"context"
	"sort"
	"time"

	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

// HealthCheck reports whether one dependency answers.
type HealthCheck func(ctx context.Context) error

type Health struct {
	Version    string
	Dispatcher channel.Dispatcher
	Checks     map[string]HealthCheck
}

type HealthStatus struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Mode    string            `json:"mode"`
	Checks  map[string]string `json:"checks"`
}

func InitRestHealth(app fiber.Router, version string, dispatcher channel.Dispatcher, checks map[string]HealthCheck) Health {
	handler := Health{Version: version, Dispatcher: dispatcher, Checks: checks}
	app.Get("/health", handler.GetStatus)
	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := HealthStatus{Status: "ok", Version: h.Version, Mode: string(h.Dispatcher.Mode()), Checks: map[string]string{}}
	for _, name := range names {
		if err := h.Checks[name](ctx); err != nil {
			status.Status = "degraded"
			status.Checks[name] = err.Error()
			continue
		}
		status.Checks[name] = "ok"
	}

	code, label := fiber.StatusOK, "SUCCESS"
	if status.Status != "ok" {
		code, label = fiber.StatusServiceUnavailable, "DEGRADED"
	}
	return c.Status(code).JSON(utils.ResponseData{
		Status:  code,
		Code:    label,
		Message: "Health status retrieved",
		Results: status,
	})
}
