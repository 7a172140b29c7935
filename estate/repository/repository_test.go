package repository

import (
	"context"
	"testing"
	"time"

	"github.com/AzielCF/az-estate/estate/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, InitSchema(context.Background(), db))
	return db
}

func seed(t *testing.T, db *gorm.DB) DemoData {
	t.Helper()
	data, err := SeedDemo(context.Background(), db, DemoPhones{
		Tenant:          "2348011111111",
		FacilityManager: "2348022222222",
		Landlord:        "2348033333333",
	})
	require.NoError(t, err)
	return data
}

func TestFindAccounts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	data := seed(t, db)
	repo := NewAccountGormRepository(db)

	accounts, err := repo.FindAccounts(ctx, "2348011111111")
	require.NoError(t, err)
	require.NotNil(t, accounts.Tenant)
	assert.Equal(t, data.Tenant.ID, accounts.Tenant.ID)
	assert.Nil(t, accounts.Landlord)
	assert.Nil(t, accounts.FacilityManager)

	accounts, err = repo.FindAccounts(ctx, "2349999999999")
	require.NoError(t, err)
	assert.True(t, accounts.Empty())

	accounts, err = repo.FindAccounts(ctx, "")
	require.NoError(t, err)
	assert.True(t, accounts.Empty())

	// the same phone holding two roles
	require.NoError(t, repo.CreateLandlord(ctx, &domain.Landlord{Name: "Both", Phone: "2348022222222"}))
	accounts, err = repo.FindAccounts(ctx, "2348022222222")
	require.NoError(t, err)
	assert.NotNil(t, accounts.FacilityManager)
	assert.NotNil(t, accounts.Landlord)

	tenant, err := repo.GetTenant(ctx, data.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Demo Tenant", tenant.Name)

	_, err = repo.GetTenant(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPropertyQueries(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	data := seed(t, db)
	repo := NewPropertyGormRepository(db)

	tenancies, err := repo.ActiveTenancies(ctx, data.Tenant.ID)
	require.NoError(t, err)
	require.Len(t, tenancies, 1)
	assert.Equal(t, "Palm Court, Flat 2", tenancies[0].PropertyName)
	assert.Equal(t, "Demo Tenant", tenancies[0].TenantName)

	property, err := repo.GetProperty(ctx, data.Properties[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{data.Manager.ID}, property.ManagerIDs)

	managers, err := repo.ManagersOf(ctx, data.Properties[0].ID)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Equal(t, "2348022222222", managers[0].Phone)

	landlord, err := repo.LandlordOf(ctx, data.Properties[1].ID)
	require.NoError(t, err)
	assert.Equal(t, data.Landlord.ID, landlord.ID)

	_, err = repo.LandlordOf(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	inactive := domain.Tenancy{TenantID: data.Tenant.ID, PropertyID: data.Properties[1].ID, Active: false}
	require.NoError(t, repo.CreateTenancy(ctx, &inactive))
	tenancies, err = repo.ActiveTenancies(ctx, data.Tenant.ID)
	require.NoError(t, err)
	assert.Len(t, tenancies, 1)

	page, total, err := repo.TenanciesByLandlord(ctx, data.Landlord.ID, domain.Page{Number: 1, Size: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, data.Properties[0].ID, page[0].PropertyID)

	page, _, err = repo.TenanciesByLandlord(ctx, data.Landlord.ID, domain.Page{Number: 2, Size: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, inactive.ID, page[0].ID)
}

func TestRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	data := seed(t, db)
	repo := NewRequestGormRepository(db)

	req := domain.ServiceRequest{TenantID: data.Tenant.ID, PropertyID: data.Properties[0].ID, Description: "leaking tap"}
	require.NoError(t, repo.Create(ctx, &req))
	assert.NotZero(t, req.ID)
	assert.Equal(t, domain.StatusPending, req.Status)

	got, err := repo.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Palm Court, Flat 2", got.PropertyName)

	_, err = repo.GetForManager(ctx, data.Manager.ID, req.ID)
	require.NoError(t, err)
	_, err = repo.GetForManager(ctx, data.Manager.ID+100, req.ID)
	assert.ErrorIs(t, err, domain.ErrNotAssigned)
	_, err = repo.GetForManager(ctx, data.Manager.ID, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	open, err := repo.ListByManager(ctx, data.Manager.ID, domain.OpenStatuses()...)
	require.NoError(t, err)
	require.Len(t, open, 1)

	updated, err := repo.UpdateStatus(ctx, req.ID, domain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.Status)

	_, err = repo.UpdateStatus(ctx, req.ID, domain.StatusClosed)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = repo.LatestResolved(ctx, data.Tenant.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	resolved, err := repo.UpdateStatus(ctx, req.ID, domain.StatusResolved)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)

	latest, err := repo.LatestResolved(ctx, data.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, latest.ID)

	reopened, err := repo.UpdateStatus(ctx, req.ID, domain.StatusReopened)
	require.NoError(t, err)
	assert.Nil(t, reopened.ResolvedAt)

	_, err = repo.UpdateStatus(ctx, 999, domain.StatusInProgress)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	update := domain.RequestUpdate{RequestID: req.ID, ManagerID: data.Manager.ID, Feedback: "plumber booked"}
	require.NoError(t, repo.AddUpdate(ctx, &update))
	assert.NotZero(t, update.ID)

	byTenant, err := repo.ListByTenant(ctx, data.Tenant.ID, 5)
	require.NoError(t, err)
	assert.Len(t, byTenant, 1)

	byLandlord, total, err := repo.ListByLandlord(ctx, data.Landlord.ID, domain.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, byLandlord, 1)
}

func TestKYCLinks(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	data := seed(t, db)
	repo := NewKYCGormRepository(db)
	now := time.Now().UTC()

	_, err := repo.ActiveLink(ctx, data.Landlord.ID, now)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	expired := domain.KYCLink{LandlordID: data.Landlord.ID, URL: "https://portal/kyc/old", ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.CreateLink(ctx, &expired))
	assert.NotEmpty(t, expired.Token)

	_, err = repo.ActiveLink(ctx, data.Landlord.ID, now)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	live := domain.KYCLink{LandlordID: data.Landlord.ID, Token: "tok", URL: "https://portal/kyc/tok", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.CreateLink(ctx, &live))

	got, err := repo.ActiveLink(ctx, data.Landlord.ID, now)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
}

func TestLeadsAndChatLogs(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	leads := NewLeadGormRepository(db)
	lead := domain.Lead{Phone: "2348044444444", Name: "Ada", Category: "lead_rent"}
	require.NoError(t, leads.SaveLead(ctx, &lead))
	assert.NotZero(t, lead.ID)

	ref := domain.Referral{ReferrerPhone: "2348044444444", Name: "Bola", Phone: "2348055555555"}
	require.NoError(t, leads.SaveReferral(ctx, &ref))
	assert.NotZero(t, ref.ID)

	logs := NewChatLogGormRepository(db)
	for _, content := range []string{"menu", "Hello"} {
		entry := domain.ChatLog{Phone: "2348044444444", Direction: domain.DirectionInbound, Kind: "text", Content: content}
		require.NoError(t, logs.Append(ctx, &entry))
	}
	out := domain.ChatLog{Phone: "2348044444444", Direction: domain.DirectionOutbound, Kind: "buttons", Content: "Welcome", ProviderMessageID: "sim-1", Simulated: true}
	require.NoError(t, logs.Append(ctx, &out))

	entries, err := logs.ListByPhone(ctx, "2348044444444", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Welcome", entries[0].Content)
	assert.True(t, entries[0].Simulated)
	assert.Equal(t, domain.DirectionOutbound, entries[0].Direction)
}
