package application

import (
	"context"
	"fmt"
	"time"

	"github.com/AzielCF/az-estate/estate/domain"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/pkg/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	TemplateRequestNotification = "service_request_notification"
	TemplateRequestResolved     = "service_request_resolved"
)

// DefaultNotifyDelay spaces consecutive notification sends.
const DefaultNotifyDelay = time.Second

// Notifier fans template messages out one by one, waiting delay between the
// sends of one fan-out so a burst of recipients never trips the provider rate
// limit. Separate fan-outs are paced independently.
type Notifier struct {
	dispatcher channel.Dispatcher
	limit      rate.Limit
	metrics    *metrics.Collector
}

func NewNotifier(dispatcher channel.Dispatcher, delay time.Duration, m *metrics.Collector) *Notifier {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Notifier{dispatcher: dispatcher, limit: limit, metrics: m}
}

// Notify sends every message in order and returns how many were accepted.
// A failed send is logged and does not stop the remaining ones; nothing is
// retried, retryable failures are only flagged in the log.
func (n *Notifier) Notify(ctx context.Context, msgs ...channel.Outbound) int {
	limiter := rate.NewLimiter(n.limit, 1)
	accepted := 0
	for _, msg := range msgs {
		if err := limiter.Wait(ctx); err != nil {
			logrus.WithError(err).Warnf("[NOTIFIER] stopped before %s to %s", msg.Type(), msg.Recipient())
			return accepted
		}
		res, err := n.dispatcher.Send(ctx, msg)
		n.metrics.ObserveNotification(templateName(msg), err)
		if err != nil {
			entry := logrus.WithError(err).WithField("retryable", channel.IsRetryable(err))
			if channel.IsRetryable(err) {
				entry.Warnf("[NOTIFIER] %s to %s failed, the provider may accept it later", templateName(msg), msg.Recipient())
			} else {
				entry.Errorf("[NOTIFIER] %s to %s rejected", templateName(msg), msg.Recipient())
			}
			continue
		}
		if res.Accepted {
			accepted++
		}
	}
	return accepted
}

func templateName(msg channel.Outbound) string {
	if t, ok := msg.(channel.Template); ok {
		return t.Name
	}
	return msg.Type()
}

// requestStakeholders loads the facility managers of the request property
// and its landlord, in that order.
func requestStakeholders(ctx context.Context, properties domain.PropertyRepository, propertyID uint) ([]domain.FacilityManager, *domain.Landlord) {
	managers, err := properties.ManagersOf(ctx, propertyID)
	if err != nil {
		logrus.WithError(err).Warnf("[NOTIFIER] could not load managers of property %d", propertyID)
	}
	ll, err := properties.LandlordOf(ctx, propertyID)
	if err != nil {
		logrus.WithError(err).Warnf("[NOTIFIER] could not load landlord of property %d", propertyID)
		return managers, nil
	}
	return managers, &ll
}

// requestNotifications builds one service_request_notification per stakeholder.
func requestNotifications(managers []domain.FacilityManager, landlord *domain.Landlord, req domain.ServiceRequest, tenantName, headline string) []channel.Outbound {
	build := func(to, name string) channel.Outbound {
		return channel.Template{
			To:   to,
			Name: TemplateRequestNotification,
			Params: []string{
				firstName(name),
				headline,
				fmt.Sprintf("#%d", req.ID),
				req.PropertyName,
				tenantName,
				req.Description,
			},
		}
	}

	var msgs []channel.Outbound
	for _, m := range managers {
		if m.Phone == "" {
			continue
		}
		msgs = append(msgs, build(m.Phone, m.Name))
	}
	if landlord != nil && landlord.Phone != "" {
		msgs = append(msgs, build(landlord.Phone, landlord.Name))
	}
	return msgs
}
