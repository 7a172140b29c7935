package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/AzielCF/az-estate/estate/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type KYCGormRepository struct {
	db *gorm.DB
}

func NewKYCGormRepository(db *gorm.DB) *KYCGormRepository {
	return &KYCGormRepository{db: db}
}

// ActiveLink returns the newest unused, unexpired link of the landlord.
func (r *KYCGormRepository) ActiveLink(ctx context.Context, landlordID uint, now time.Time) (domain.KYCLink, error) {
	var m kycLinkModel
	err := r.db.WithContext(ctx).
		Where("landlord_id = ? AND used = ? AND expires_at > ?", landlordID, false, now).
		Order("expires_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		return domain.KYCLink{}, notFound(err)
	}
	return fromKYCLinkModel(m), nil
}

// CreateLink stores a new link, generating its token when empty.
func (r *KYCGormRepository) CreateLink(ctx context.Context, link *domain.KYCLink) error {
	if link.Token == "" {
		link.Token = uuid.NewString()
	}
	m := kycLinkModel{
		LandlordID: link.LandlordID,
		Token:      link.Token,
		URL:        link.URL,
		ExpiresAt:  link.ExpiresAt,
		Used:       link.Used,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to create kyc link: %w", err)
	}
	link.ID, link.CreatedAt = m.ID, m.CreatedAt
	return nil
}
