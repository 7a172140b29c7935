package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the Prometheus metrics of the messaging engine.
// Every method is safe on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	InboundEvents   *prometheus.CounterVec
	OutboundSends   *prometheus.CounterVec
	SendDuration    *prometheus.HistogramVec
	FlowTransitions *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "estate"
	}
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		InboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messaging",
			Name:      "inbound_events_total",
			Help:      "Inbound channel events by kind, resolved role and outcome",
		}, []string{"kind", "role", "outcome"}),
		OutboundSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messaging",
			Name:      "outbound_sends_total",
			Help:      "Outbound sends by dispatcher mode, message type and result",
		}, []string{"mode", "type", "result"}),
		SendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "messaging",
			Name:      "send_duration_seconds",
			Help:      "Time spent sending one outbound message",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		FlowTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messaging",
			Name:      "flow_transitions_total",
			Help:      "Flow state transitions by role and target state",
		}, []string{"role", "state"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messaging",
			Name:      "notifications_total",
			Help:      "Template notifications by template and result",
		}, []string{"template", "result"}),
	}
	reg.MustRegister(
		c.InboundEvents,
		c.OutboundSends,
		c.SendDuration,
		c.FlowTransitions,
		c.Notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveInbound(kind, role, outcome string) {
	if c == nil {
		return
	}
	c.InboundEvents.WithLabelValues(kind, role, outcome).Inc()
}

func (c *Collector) ObserveSend(mode, msgType string, err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.OutboundSends.WithLabelValues(mode, msgType, result).Inc()
	c.SendDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveTransition(role, state string) {
	if c == nil {
		return
	}
	c.FlowTransitions.WithLabelValues(role, state).Inc()
}

func (c *Collector) ObserveNotification(template string, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Notifications.WithLabelValues(template, result).Inc()
}
