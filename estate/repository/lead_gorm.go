package repository

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-estate/estate/domain"
	"gorm.io/gorm"
)

type LeadGormRepository struct {
	db *gorm.DB
}

func NewLeadGormRepository(db *gorm.DB) *LeadGormRepository {
	return &LeadGormRepository{db: db}
}

func (r *LeadGormRepository) SaveLead(ctx context.Context, lead *domain.Lead) error {
	m := leadModel{Phone: lead.Phone, Name: lead.Name, Category: lead.Category}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}
	lead.ID, lead.CreatedAt = m.ID, m.CreatedAt
	return nil
}

func (r *LeadGormRepository) SaveReferral(ctx context.Context, referral *domain.Referral) error {
	m := referralModel{ReferrerPhone: referral.ReferrerPhone, Name: referral.Name, Phone: referral.Phone}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to save referral: %w", err)
	}
	referral.ID, referral.CreatedAt = m.ID, m.CreatedAt
	return nil
}
