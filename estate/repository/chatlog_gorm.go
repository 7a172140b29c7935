package repository

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-estate/estate/domain"
	"gorm.io/gorm"
)

type ChatLogGormRepository struct {
	db *gorm.DB
}

func NewChatLogGormRepository(db *gorm.DB) *ChatLogGormRepository {
	return &ChatLogGormRepository{db: db}
}

func (r *ChatLogGormRepository) Append(ctx context.Context, entry *domain.ChatLog) error {
	m := chatLogModel{
		Phone:             entry.Phone,
		Direction:         string(entry.Direction),
		Kind:              entry.Kind,
		Content:           entry.Content,
		ProviderMessageID: entry.ProviderMessageID,
		Simulated:         entry.Simulated,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to append chat log: %w", err)
	}
	entry.ID, entry.CreatedAt = m.ID, m.CreatedAt
	return nil
}

// ListByPhone returns the latest entries first.
func (r *ChatLogGormRepository) ListByPhone(ctx context.Context, phone string, limit int) ([]domain.ChatLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []chatLogModel
	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chat logs: %w", err)
	}
	out := make([]domain.ChatLog, len(rows))
	for i, m := range rows {
		out[i] = fromChatLogModel(m)
	}
	return out, nil
}
