package application

import (
	"context"

	"github.com/AzielCF/az-estate/estate/domain"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/event"
)

// ChatLogger records both directions of a conversation in the message log.
// It is the MessageLogger handed to the dispatcher.
type ChatLogger struct {
	repo domain.ChatLogRepository
}

func NewChatLogger(repo domain.ChatLogRepository) *ChatLogger {
	return &ChatLogger{repo: repo}
}

func (l *ChatLogger) LogOutbound(ctx context.Context, entry channel.LogEntry) error {
	return l.repo.Append(ctx, &domain.ChatLog{
		Phone:             entry.Recipient,
		Direction:         domain.DirectionOutbound,
		Kind:              entry.Type,
		Content:           entry.Content,
		ProviderMessageID: entry.ProviderMessageID,
		Simulated:         entry.Simulated,
	})
}

func (l *ChatLogger) LogInbound(ctx context.Context, sender string, evt event.Event, simulated bool) error {
	return l.repo.Append(ctx, &domain.ChatLog{
		Phone:             sender,
		Direction:         domain.DirectionInbound,
		Kind:              string(evt.Kind()),
		Content:           event.Content(evt),
		ProviderMessageID: evt.ID(),
		Simulated:         simulated,
	})
}
