package repository

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-estate/estate/domain"
	"gorm.io/gorm"
)

// AccountGormRepository resolves phones to business accounts.
// Phones are stored canonical, so a single equality lookup per table is enough.
type AccountGormRepository struct {
	db *gorm.DB
}

func NewAccountGormRepository(db *gorm.DB) *AccountGormRepository {
	return &AccountGormRepository{db: db}
}

func (r *AccountGormRepository) FindAccounts(ctx context.Context, phone string) (domain.Accounts, error) {
	var accounts domain.Accounts
	if phone == "" {
		return accounts, nil
	}
	db := r.db.WithContext(ctx)

	var tenants []tenantModel
	if err := db.Where("phone = ?", phone).Order("id").Limit(1).Find(&tenants).Error; err != nil {
		return accounts, fmt.Errorf("failed to look up tenant: %w", err)
	}
	if len(tenants) > 0 {
		t := fromTenantModel(tenants[0])
		accounts.Tenant = &t
	}

	var managers []facilityManagerModel
	if err := db.Where("phone = ?", phone).Order("id").Limit(1).Find(&managers).Error; err != nil {
		return accounts, fmt.Errorf("failed to look up facility manager: %w", err)
	}
	if len(managers) > 0 {
		fm := fromFacilityManagerModel(managers[0])
		accounts.FacilityManager = &fm
	}

	var landlords []landlordModel
	if err := db.Where("phone = ?", phone).Order("id").Limit(1).Find(&landlords).Error; err != nil {
		return accounts, fmt.Errorf("failed to look up landlord: %w", err)
	}
	if len(landlords) > 0 {
		l := fromLandlordModel(landlords[0])
		accounts.Landlord = &l
	}

	return accounts, nil
}

func (r *AccountGormRepository) GetTenant(ctx context.Context, id uint) (domain.Tenant, error) {
	var m tenantModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Tenant{}, notFound(err)
	}
	return fromTenantModel(m), nil
}

func (r *AccountGormRepository) CreateTenant(ctx context.Context, t *domain.Tenant) error {
	m := tenantModel{Name: t.Name, Phone: t.Phone, Email: t.Email}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	t.ID, t.CreatedAt = m.ID, m.CreatedAt
	return nil
}

func (r *AccountGormRepository) CreateLandlord(ctx context.Context, l *domain.Landlord) error {
	m := landlordModel{Name: l.Name, Phone: l.Phone, Email: l.Email, KYCVerified: l.KYCVerified}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	l.ID, l.CreatedAt = m.ID, m.CreatedAt
	return nil
}

func (r *AccountGormRepository) CreateFacilityManager(ctx context.Context, fm *domain.FacilityManager) error {
	m := facilityManagerModel{Name: fm.Name, Phone: fm.Phone}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	fm.ID, fm.CreatedAt = m.ID, m.CreatedAt
	return nil
}
