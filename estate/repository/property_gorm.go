package repository

import (
	"context"
	"fmt"

	"github.com/AzielCF/az-estate/estate/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PropertyGormRepository struct {
	db *gorm.DB
}

func NewPropertyGormRepository(db *gorm.DB) *PropertyGormRepository {
	return &PropertyGormRepository{db: db}
}

func (r *PropertyGormRepository) ActiveTenancies(ctx context.Context, tenantID uint) ([]domain.Tenancy, error) {
	var rows []tenancyModel
	err := r.db.WithContext(ctx).
		Preload("Property").
		Preload("Tenant").
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tenancies: %w", err)
	}
	out := make([]domain.Tenancy, len(rows))
	for i, m := range rows {
		out[i] = fromTenancyModel(m)
	}
	return out, nil
}

func (r *PropertyGormRepository) GetProperty(ctx context.Context, id uint) (domain.Property, error) {
	var m propertyModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Property{}, notFound(err)
	}
	var links []propertyManagerModel
	if err := r.db.WithContext(ctx).Where("property_id = ?", id).Order("facility_manager_id").Find(&links).Error; err != nil {
		return domain.Property{}, fmt.Errorf("failed to load property managers: %w", err)
	}
	p := domain.Property{ID: m.ID, Name: m.Name, Address: m.Address, LandlordID: m.LandlordID}
	for _, l := range links {
		p.ManagerIDs = append(p.ManagerIDs, l.FacilityManagerID)
	}
	return p, nil
}

func (r *PropertyGormRepository) ManagersOf(ctx context.Context, propertyID uint) ([]domain.FacilityManager, error) {
	var rows []facilityManagerModel
	err := r.db.WithContext(ctx).
		Joins("JOIN property_managers ON property_managers.facility_manager_id = facility_managers.id").
		Where("property_managers.property_id = ?", propertyID).
		Order("facility_managers.id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list facility managers: %w", err)
	}
	out := make([]domain.FacilityManager, len(rows))
	for i, m := range rows {
		out[i] = fromFacilityManagerModel(m)
	}
	return out, nil
}

func (r *PropertyGormRepository) LandlordOf(ctx context.Context, propertyID uint) (domain.Landlord, error) {
	var p propertyModel
	if err := r.db.WithContext(ctx).First(&p, propertyID).Error; err != nil {
		return domain.Landlord{}, notFound(err)
	}
	var m landlordModel
	if err := r.db.WithContext(ctx).First(&m, p.LandlordID).Error; err != nil {
		return domain.Landlord{}, notFound(err)
	}
	return fromLandlordModel(m), nil
}

func (r *PropertyGormRepository) TenanciesByLandlord(ctx context.Context, landlordID uint, page domain.Page) ([]domain.Tenancy, int64, error) {
	base := r.db.WithContext(ctx).Model(&tenancyModel{}).
		Joins("JOIN properties ON properties.id = tenancies.property_id").
		Where("properties.landlord_id = ?", landlordID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tenancies: %w", err)
	}

	var rows []tenancyModel
	err := base.Session(&gorm.Session{}).
		Preload("Property").
		Preload("Tenant").
		Order("tenancies.id").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tenancies: %w", err)
	}
	out := make([]domain.Tenancy, len(rows))
	for i, m := range rows {
		out[i] = fromTenancyModel(m)
	}
	return out, total, nil
}

func (r *PropertyGormRepository) CreateProperty(ctx context.Context, p *domain.Property) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := propertyModel{Name: p.Name, Address: p.Address, LandlordID: p.LandlordID}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		p.ID = m.ID
		for _, managerID := range p.ManagerIDs {
			link := propertyManagerModel{PropertyID: m.ID, FacilityManagerID: managerID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PropertyGormRepository) CreateTenancy(ctx context.Context, t *domain.Tenancy) error {
	m := tenancyModel{
		TenantID:   t.TenantID,
		PropertyID: t.PropertyID,
		RentAmount: t.RentAmount,
		StartDate:  t.StartDate,
		EndDate:    t.EndDate,
		Active:     t.Active,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error; err != nil {
		return err
	}
	t.ID = m.ID
	return nil
}
