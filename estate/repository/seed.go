package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/AzielCF/az-estate/estate/domain"
	"gorm.io/gorm"
)

// DemoPhones are the canonical numbers the demo dataset is keyed on.
type DemoPhones struct {
	Tenant          string
	FacilityManager string
	Landlord        string
}

// DemoData reports what SeedDemo created.
type DemoData struct {
	Tenant     domain.Tenant
	Manager    domain.FacilityManager
	Landlord   domain.Landlord
	Properties []domain.Property
}

// SeedDemo fills an empty database with one landlord owning two properties,
// a facility manager on both, and a tenant renting the first one. It lets the
// simulator be driven end to end without real data.
func SeedDemo(ctx context.Context, db *gorm.DB, phones DemoPhones) (DemoData, error) {
	var data DemoData
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts := NewAccountGormRepository(tx)
		properties := NewPropertyGormRepository(tx)

		data.Landlord = domain.Landlord{Name: "Demo Landlord", Phone: phones.Landlord}
		if err := accounts.CreateLandlord(ctx, &data.Landlord); err != nil {
			return fmt.Errorf("landlord: %w", err)
		}
		data.Manager = domain.FacilityManager{Name: "Demo Facility Manager", Phone: phones.FacilityManager}
		if err := accounts.CreateFacilityManager(ctx, &data.Manager); err != nil {
			return fmt.Errorf("facility manager: %w", err)
		}
		data.Tenant = domain.Tenant{Name: "Demo Tenant", Phone: phones.Tenant}
		if err := accounts.CreateTenant(ctx, &data.Tenant); err != nil {
			return fmt.Errorf("tenant: %w", err)
		}

		for _, name := range []string{"Palm Court, Flat 2", "Harbour View, Unit 7"} {
			p := domain.Property{Name: name, Address: name, LandlordID: data.Landlord.ID, ManagerIDs: []uint{data.Manager.ID}}
			if err := properties.CreateProperty(ctx, &p); err != nil {
				return fmt.Errorf("property: %w", err)
			}
			data.Properties = append(data.Properties, p)
		}

		now := time.Now().UTC()
		tenancy := domain.Tenancy{
			TenantID:   data.Tenant.ID,
			PropertyID: data.Properties[0].ID,
			RentAmount: 1500000,
			StartDate:  now.AddDate(0, -3, 0),
			EndDate:    now.AddDate(0, 9, 0),
			Active:     true,
		}
		if err := properties.CreateTenancy(ctx, &tenancy); err != nil {
			return fmt.Errorf("tenancy: %w", err)
		}
		return nil
	})
	return data, err
}
