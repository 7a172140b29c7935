package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AzielCF/az-estate/estate/domain"
	"gorm.io/gorm"
)

// --- Persistence Models ---

type tenantModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Phone     string `gorm:"index:idx_tenants_phone"`
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (tenantModel) TableName() string { return "tenants" }

type landlordModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Phone       string `gorm:"index:idx_landlords_phone"`
	Email       string
	KYCVerified bool `gorm:"default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (landlordModel) TableName() string { return "landlords" }

type facilityManagerModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Phone     string `gorm:"index:idx_facility_managers_phone"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (facilityManagerModel) TableName() string { return "facility_managers" }

type propertyModel struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"not null"`
	Address    string
	LandlordID uint `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (propertyModel) TableName() string { return "properties" }

type propertyManagerModel struct {
	PropertyID        uint `gorm:"primaryKey"`
	FacilityManagerID uint `gorm:"primaryKey"`
}

func (propertyManagerModel) TableName() string { return "property_managers" }

type tenancyModel struct {
	ID         uint          `gorm:"primaryKey"`
	TenantID   uint          `gorm:"index"`
	Tenant     tenantModel   `gorm:"foreignKey:TenantID"`
	PropertyID uint          `gorm:"index"`
	Property   propertyModel `gorm:"foreignKey:PropertyID"`
	RentAmount int64
	StartDate  time.Time
	EndDate    time.Time
	Active     bool `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (tenancyModel) TableName() string { return "tenancies" }

type serviceRequestModel struct {
	ID          uint          `gorm:"primaryKey"`
	TenantID    uint          `gorm:"index"`
	PropertyID  uint          `gorm:"index"`
	Property    propertyModel `gorm:"foreignKey:PropertyID"`
	Description string        `gorm:"type:text"`
	Status      string        `gorm:"index;default:'pending'"`
	ResolvedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (serviceRequestModel) TableName() string { return "service_requests" }

type requestUpdateModel struct {
	ID        uint   `gorm:"primaryKey"`
	RequestID uint   `gorm:"index"`
	ManagerID uint   `gorm:"index"`
	Feedback  string `gorm:"type:text"`
	CreatedAt time.Time
}

func (requestUpdateModel) TableName() string { return "service_request_updates" }

type kycLinkModel struct {
	ID         uint   `gorm:"primaryKey"`
	LandlordID uint   `gorm:"index"`
	Token      string `gorm:"uniqueIndex"`
	URL        string
	ExpiresAt  time.Time `gorm:"index"`
	Used       bool
	CreatedAt  time.Time
}

func (kycLinkModel) TableName() string { return "kyc_links" }

type leadModel struct {
	ID        uint   `gorm:"primaryKey"`
	Phone     string `gorm:"index"`
	Name      string
	Category  string
	CreatedAt time.Time
}

func (leadModel) TableName() string { return "leads" }

type referralModel struct {
	ID            uint   `gorm:"primaryKey"`
	ReferrerPhone string `gorm:"index"`
	Name          string
	Phone         string
	CreatedAt     time.Time
}

func (referralModel) TableName() string { return "referrals" }

type chatLogModel struct {
	ID                uint   `gorm:"primaryKey"`
	Phone             string `gorm:"index:idx_chat_logs_phone"`
	Direction         string `gorm:"size:16"`
	Kind              string `gorm:"size:32"`
	Content           string `gorm:"type:text"`
	ProviderMessageID string
	Simulated         bool
	CreatedAt         time.Time `gorm:"index"`
}

func (chatLogModel) TableName() string { return "chat_logs" }

// Models lists every persistence model, in migration order.
func Models() []any {
	return []any{
		&tenantModel{},
		&landlordModel{},
		&facilityManagerModel{},
		&propertyModel{},
		&propertyManagerModel{},
		&tenancyModel{},
		&serviceRequestModel{},
		&requestUpdateModel{},
		&kycLinkModel{},
		&leadModel{},
		&referralModel{},
		&chatLogModel{},
	}
}

// InitSchema creates or updates every estate table.
func InitSchema(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(Models()...)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// --- Mappers ---

func fromTenantModel(m tenantModel) domain.Tenant {
	return domain.Tenant{ID: m.ID, Name: m.Name, Phone: m.Phone, Email: m.Email, CreatedAt: m.CreatedAt}
}

func fromLandlordModel(m landlordModel) domain.Landlord {
	return domain.Landlord{ID: m.ID, Name: m.Name, Phone: m.Phone, Email: m.Email, KYCVerified: m.KYCVerified, CreatedAt: m.CreatedAt}
}

func fromFacilityManagerModel(m facilityManagerModel) domain.FacilityManager {
	return domain.FacilityManager{ID: m.ID, Name: m.Name, Phone: m.Phone, CreatedAt: m.CreatedAt}
}

func fromTenancyModel(m tenancyModel) domain.Tenancy {
	return domain.Tenancy{
		ID:           m.ID,
		TenantID:     m.TenantID,
		TenantName:   m.Tenant.Name,
		PropertyID:   m.PropertyID,
		PropertyName: m.Property.Name,
		RentAmount:   m.RentAmount,
		StartDate:    m.StartDate,
		EndDate:      m.EndDate,
		Active:       m.Active,
	}
}

func fromServiceRequestModel(m serviceRequestModel) domain.ServiceRequest {
	return domain.ServiceRequest{
		ID:           m.ID,
		TenantID:     m.TenantID,
		PropertyID:   m.PropertyID,
		PropertyName: m.Property.Name,
		Description:  m.Description,
		Status:       domain.RequestStatus(m.Status),
		ResolvedAt:   m.ResolvedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromKYCLinkModel(m kycLinkModel) domain.KYCLink {
	return domain.KYCLink{
		ID:         m.ID,
		LandlordID: m.LandlordID,
		Token:      m.Token,
		URL:        m.URL,
		ExpiresAt:  m.ExpiresAt,
		Used:       m.Used,
		CreatedAt:  m.CreatedAt,
	}
}

func fromChatLogModel(m chatLogModel) domain.ChatLog {
	return domain.ChatLog{
		ID:                m.ID,
		Phone:             m.Phone,
		Direction:         domain.ChatDirection(m.Direction),
		Kind:              m.Kind,
		Content:           m.Content,
		ProviderMessageID: m.ProviderMessageID,
		Simulated:         m.Simulated,
		CreatedAt:         m.CreatedAt,
	}
}
