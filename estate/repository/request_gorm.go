package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AzielCF/az-estate/estate/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestGormRepository struct {
	db *gorm.DB
}

func NewRequestGormRepository(db *gorm.DB) *RequestGormRepository {
	return &RequestGormRepository{db: db}
}

func (r *RequestGormRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	if req.Status == "" {
		req.Status = domain.StatusPending
	}
	m := serviceRequestModel{
		TenantID:    req.TenantID,
		PropertyID:  req.PropertyID,
		Description: req.Description,
		Status:      string(req.Status),
		ResolvedAt:  req.ResolvedAt,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to create service request: %w", err)
	}
	req.ID, req.CreatedAt, req.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return nil
}

func (r *RequestGormRepository) Get(ctx context.Context, id uint) (domain.ServiceRequest, error) {
	var m serviceRequestModel
	if err := r.db.WithContext(ctx).Preload("Property").First(&m, id).Error; err != nil {
		return domain.ServiceRequest{}, notFound(err)
	}
	return fromServiceRequestModel(m), nil
}

func (r *RequestGormRepository) GetForManager(ctx context.Context, managerID, requestID uint) (domain.ServiceRequest, error) {
	req, err := r.Get(ctx, requestID)
	if err != nil {
		return domain.ServiceRequest{}, err
	}
	var count int64
	err = r.db.WithContext(ctx).Model(&propertyManagerModel{}).
		Where("property_id = ? AND facility_manager_id = ?", req.PropertyID, managerID).
		Count(&count).Error
	if err != nil {
		return domain.ServiceRequest{}, fmt.Errorf("failed to check assignment: %w", err)
	}
	if count == 0 {
		return domain.ServiceRequest{}, domain.ErrNotAssigned
	}
	return req, nil
}

func (r *RequestGormRepository) ListByTenant(ctx context.Context, tenantID uint, limit int) ([]domain.ServiceRequest, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []serviceRequestModel
	err := r.db.WithContext(ctx).
		Preload("Property").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant requests: %w", err)
	}
	return toRequests(rows), nil
}

func (r *RequestGormRepository) ListByManager(ctx context.Context, managerID uint, statuses ...domain.RequestStatus) ([]domain.ServiceRequest, error) {
	q := r.db.WithContext(ctx).
		Preload("Property").
		Joins("JOIN property_managers ON property_managers.property_id = service_requests.property_id").
		Where("property_managers.facility_manager_id = ?", managerID)
	if len(statuses) > 0 {
		q = q.Where("service_requests.status IN ?", statusStrings(statuses))
	}

	var rows []serviceRequestModel
	if err := q.Order("service_requests.id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list manager requests: %w", err)
	}
	return toRequests(rows), nil
}

func (r *RequestGormRepository) ListByLandlord(ctx context.Context, landlordID uint, page domain.Page) ([]domain.ServiceRequest, int64, error) {
	base := r.db.WithContext(ctx).Model(&serviceRequestModel{}).
		Joins("JOIN properties ON properties.id = service_requests.property_id").
		Where("properties.landlord_id = ?", landlordID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count landlord requests: %w", err)
	}

	var rows []serviceRequestModel
	err := base.Session(&gorm.Session{}).
		Preload("Property").
		Order("service_requests.created_at DESC, service_requests.id DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list landlord requests: %w", err)
	}
	return toRequests(rows), total, nil
}

// UpdateStatus moves a request along its lifecycle and returns the updated row.
func (r *RequestGormRepository) UpdateStatus(ctx context.Context, id uint, status domain.RequestStatus) (domain.ServiceRequest, error) {
	var updated domain.ServiceRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m serviceRequestModel
		if err := tx.First(&m, id).Error; err != nil {
			return notFound(err)
		}
		if !domain.CanTransition(domain.RequestStatus(m.Status), status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, m.Status, status)
		}

		changes := map[string]any{"status": string(status)}
		switch status {
		case domain.StatusResolved:
			changes["resolved_at"] = time.Now().UTC()
		case domain.StatusReopened:
			changes["resolved_at"] = nil
		}
		if err := tx.Model(&m).Updates(changes).Error; err != nil {
			return err
		}
		if err := tx.Preload("Property").First(&m, id).Error; err != nil {
			return err
		}
		updated = fromServiceRequestModel(m)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
			return domain.ServiceRequest{}, err
		}
		return domain.ServiceRequest{}, fmt.Errorf("failed to update request status: %w", err)
	}
	return updated, nil
}

func (r *RequestGormRepository) AddUpdate(ctx context.Context, update *domain.RequestUpdate) error {
	m := requestUpdateModel{RequestID: update.RequestID, ManagerID: update.ManagerID, Feedback: update.Feedback}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to save request update: %w", err)
	}
	update.ID, update.CreatedAt = m.ID, m.CreatedAt
	return nil
}

func (r *RequestGormRepository) LatestResolved(ctx context.Context, tenantID uint) (domain.ServiceRequest, error) {
	var m serviceRequestModel
	err := r.db.WithContext(ctx).
		Preload("Property").
		Where("tenant_id = ? AND status = ?", tenantID, string(domain.StatusResolved)).
		Order("resolved_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		return domain.ServiceRequest{}, notFound(err)
	}
	return fromServiceRequestModel(m), nil
}

func toRequests(rows []serviceRequestModel) []domain.ServiceRequest {
	out := make([]domain.ServiceRequest, len(rows))
	for i, m := range rows {
		out[i] = fromServiceRequestModel(m)
	}
	return out
}

func statusStrings(statuses []domain.RequestStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
