package domain

import (
	"context"
	"time"
)

type AccountRepository interface {
	// FindAccounts looks the canonical phone up in every account table.
	FindAccounts(ctx context.Context, phone string) (Accounts, error)
	GetTenant(ctx context.Context, id uint) (Tenant, error)
}

type PropertyRepository interface {
	ActiveTenancies(ctx context.Context, tenantID uint) ([]Tenancy, error)
	GetProperty(ctx context.Context, id uint) (Property, error)
	ManagersOf(ctx context.Context, propertyID uint) ([]FacilityManager, error)
	LandlordOf(ctx context.Context, propertyID uint) (Landlord, error)
	TenanciesByLandlord(ctx context.Context, landlordID uint, page Page) ([]Tenancy, int64, error)
}

type RequestRepository interface {
	Create(ctx context.Context, req *ServiceRequest) error
	Get(ctx context.Context, id uint) (ServiceRequest, error)
	// GetForManager fails with ErrNotAssigned when the manager does not manage the property.
	GetForManager(ctx context.Context, managerID, requestID uint) (ServiceRequest, error)
	ListByTenant(ctx context.Context, tenantID uint, limit int) ([]ServiceRequest, error)
	ListByManager(ctx context.Context, managerID uint, statuses ...RequestStatus) ([]ServiceRequest, error)
	ListByLandlord(ctx context.Context, landlordID uint, page Page) ([]ServiceRequest, int64, error)
	UpdateStatus(ctx context.Context, id uint, status RequestStatus) (ServiceRequest, error)
	AddUpdate(ctx context.Context, update *RequestUpdate) error
	LatestResolved(ctx context.Context, tenantID uint) (ServiceRequest, error)
}

type KYCRepository interface {
	ActiveLink(ctx context.Context, landlordID uint, now time.Time) (KYCLink, error)
	CreateLink(ctx context.Context, link *KYCLink) error
}

type LeadRepository interface {
	SaveLead(ctx context.Context, lead *Lead) error
	SaveReferral(ctx context.Context, referral *Referral) error
}

type ChatLogRepository interface {
	Append(ctx context.Context, entry *ChatLog) error
	ListByPhone(ctx context.Context, phone string, limit int) ([]ChatLog, error)
}
