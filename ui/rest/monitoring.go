package rest

import (
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/pkg/chatmonitor"
	"github.com/AzielCF/az-estate/pkg/eventbus"
	"github.com/AzielCF/az-estate/pkg/metrics"
	"github.com/AzielCF/az-estate/pkg/msgworker"
	"github.com/AzielCF/az-estate/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// SessionCounter is implemented by session stores that can count their keys
// locally. The valkey store cannot and is left out.
type SessionCounter interface {
	Stats() (total int, expired int)
}

type Monitoring struct {
	Monitor  *chatmonitor.Monitor
	Pool     *msgworker.Pool
	Bus      *eventbus.Bus
	Sessions SessionCounter
	ServerID string
}

type BusStats struct {
	SimulatorListeners int   `json:"simulator_listeners"`
	Dropped            int64 `json:"dropped"`
}

type SessionStats struct {
	Total   int `json:"total"`
	Expired int `json:"expired"`
}

type MonitoringStats struct {
	ServerID string               `json:"server_id"`
	Chat     chatmonitor.Stats    `json:"chat"`
	Pool     *msgworker.PoolStats `json:"pool,omitempty"`
	Bus      *BusStats            `json:"bus,omitempty"`
	Sessions *SessionStats        `json:"sessions,omitempty"`
}

func InitRestMonitoring(app fiber.Router, monitor *chatmonitor.Monitor, pool *msgworker.Pool, bus *eventbus.Bus, sessions SessionCounter, serverID string) Monitoring {
	rest := Monitoring{Monitor: monitor, Pool: pool, Bus: bus, Sessions: sessions, ServerID: serverID}
	app.Get("/monitor/stats", rest.GetStats)
	return rest
}

func (handler *Monitoring) GetStats(c *fiber.Ctx) error {
	stats := MonitoringStats{
		ServerID: handler.ServerID,
		Chat:     handler.Monitor.GetStats(),
	}
	if handler.Pool != nil {
		poolStats := handler.Pool.GetStats()
		stats.Pool = &poolStats
	}
	if handler.Bus != nil {
		stats.Bus = &BusStats{
			SimulatorListeners: handler.Bus.Subscribers(channel.TopicOutbound),
			Dropped:            handler.Bus.Dropped(),
		}
	}
	if handler.Sessions != nil {
		total, expired := handler.Sessions.Stats()
		stats.Sessions = &SessionStats{Total: total, Expired: expired}
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Monitoring stats retrieved",
		Results: stats,
	})
}

// InitRestMetrics exposes the Prometheus registry of collector at /metrics.
func InitRestMetrics(app fiber.Router, collector *metrics.Collector) {
	app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))
}
