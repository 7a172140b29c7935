package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AzielCF/az-estate/estate/domain"
	estaterepo "github.com/AzielCF/az-estate/estate/repository"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/event"
	"github.com/AzielCF/az-estate/messaging/domain/session"
	msgrepo "github.com/AzielCF/az-estate/messaging/repository"
	"github.com/AzielCF/az-estate/pkg/chatmonitor"
	"github.com/AzielCF/az-estate/pkg/phone"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	tenantPhone   = "2348011111111"
	managerPhone  = "2348022222222"
	landlordPhone = "2348033333333"
	strangerPhone = "2348099999999"
)

type sentMessage struct {
	msg channel.Outbound
	at  time.Time
}

// recordingDispatcher accepts every message and remembers it.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []sentMessage
	fail error
}

func (d *recordingDispatcher) Send(_ context.Context, msg channel.Outbound) (channel.SendResult, error) {
	if _, err := channel.BuildPayload(msg); err != nil {
		return channel.SendResult{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentMessage{msg: msg, at: time.Now()})
	if d.fail != nil {
		return channel.SendResult{}, d.fail
	}
	return channel.SendResult{Accepted: true, ProviderMessageID: "test-" + uuid.NewString()}, nil
}

func (d *recordingDispatcher) Mode() channel.Mode {
	return channel.ModeSimulation
}

func (d *recordingDispatcher) all() []sentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sentMessage(nil), d.sent...)
}

func (d *recordingDispatcher) reset() {
	d.mu.Lock()
	d.sent = nil
	d.mu.Unlock()
}

func (d *recordingDispatcher) last() channel.Outbound {
	all := d.all()
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1].msg
}

func (d *recordingDispatcher) templates(name string) []sentMessage {
	var out []sentMessage
	for _, s := range d.all() {
		if t, ok := s.msg.(channel.Template); ok && t.Name == name {
			out = append(out, s)
		}
	}
	return out
}

type harness struct {
	t          *testing.T
	db         *gorm.DB
	data       estaterepo.DemoData
	store      *msgrepo.MemorySessionStore
	sessions   *session.Manager
	dispatcher *recordingDispatcher
	monitor    *chatmonitor.Monitor
	router     *Router
	accounts   *estaterepo.AccountGormRepository
	properties *estaterepo.PropertyGormRepository
	requests   *estaterepo.RequestGormRepository
	chatLog    *estaterepo.ChatLogGormRepository
}

type harnessSettings struct {
	notifyDelay time.Duration
	flowTTL     time.Duration
}

type harnessOption func(*harnessSettings)

func withNotifyDelay(d time.Duration) harnessOption {
	return func(s *harnessSettings) { s.notifyDelay = d }
}

func withFlowTTL(ttl time.Duration) harnessOption {
	return func(s *harnessSettings) { s.flowTTL = ttl }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	require.NoError(t, estaterepo.InitSchema(ctx, db))
	data, err := estaterepo.SeedDemo(ctx, db, estaterepo.DemoPhones{
		Tenant:          tenantPhone,
		FacilityManager: managerPhone,
		Landlord:        landlordPhone,
	})
	require.NoError(t, err)

	store := msgrepo.NewMemorySessionStore()
	t.Cleanup(store.Close)

	h := &harness{
		t:          t,
		db:         db,
		data:       data,
		store:      store,
		dispatcher: &recordingDispatcher{},
		monitor:    chatmonitor.New(100, 0),
		accounts:   estaterepo.NewAccountGormRepository(db),
		properties: estaterepo.NewPropertyGormRepository(db),
		requests:   estaterepo.NewRequestGormRepository(db),
		chatLog:    estaterepo.NewChatLogGormRepository(db),
	}

	settings := harnessSettings{flowTTL: session.DefaultFlowTTL}
	for _, opt := range opts {
		opt(&settings)
	}

	deps := Dependencies{
		Sessions:    session.NewManager(store, settings.flowTTL, session.DefaultRoleTTL),
		NotifyDelay: settings.notifyDelay,
		Dispatcher:  h.dispatcher,
		Normalizer:  phone.NewNormalizer("234"),
		Accounts:    h.accounts,
		Properties:  h.properties,
		Requests:    h.requests,
		KYC:         estaterepo.NewKYCGormRepository(db),
		Leads:       estaterepo.NewLeadGormRepository(db),
		ChatLog:     NewChatLogger(h.chatLog),
		Landlord:    LandlordSettings{PortalURL: "https://portal.example.com/"},
		Monitor:     h.monitor,
	}
	h.sessions = deps.Sessions
	h.router = NewRouter(deps)
	return h
}

func (h *harness) nextID() string {
	return "wamid." + uuid.NewString()
}

func (h *harness) text(from, body string) error {
	h.t.Helper()
	return h.router.Handle(context.Background(), event.TextEvent{From: from, MessageID: h.nextID(), Body: body, Timestamp: time.Now()})
}

func (h *harness) tap(from, optionID string) error {
	h.t.Helper()
	return h.router.Handle(context.Background(), event.InteractiveEvent{From: from, MessageID: h.nextID(), OptionID: optionID, Timestamp: time.Now()})
}

func (h *harness) state(ns session.Namespace, sender string) session.State {
	h.t.Helper()
	st, err := h.sessions.Load(context.Background(), ns, sender)
	require.NoError(h.t, err)
	return st
}

func (h *harness) addProperty(name string, managers ...uint) domain.Property {
	h.t.Helper()
	p := domain.Property{Name: name, Address: name, LandlordID: h.data.Landlord.ID, ManagerIDs: managers}
	require.NoError(h.t, h.properties.CreateProperty(context.Background(), &p))
	return p
}

func (h *harness) addTenancy(tenantID, propertyID uint) {
	h.t.Helper()
	now := time.Now().UTC()
	require.NoError(h.t, h.properties.CreateTenancy(context.Background(), &domain.Tenancy{
		TenantID:   tenantID,
		PropertyID: propertyID,
		RentAmount: 900000,
		StartDate:  now,
		EndDate:    now.AddDate(1, 0, 0),
		Active:     true,
	}))
}

func (h *harness) createRequest(status domain.RequestStatus) domain.ServiceRequest {
	h.t.Helper()
	ctx := context.Background()
	req := domain.ServiceRequest{
		TenantID:    h.data.Tenant.ID,
		PropertyID:  h.data.Properties[0].ID,
		Description: "Leaking kitchen tap",
	}
	require.NoError(h.t, h.requests.Create(ctx, &req))
	for _, step := range pathTo(status) {
		var err error
		req, err = h.requests.UpdateStatus(ctx, req.ID, step)
		require.NoError(h.t, err)
	}
	return req
}

func pathTo(status domain.RequestStatus) []domain.RequestStatus {
	switch status {
	case domain.StatusInProgress:
		return []domain.RequestStatus{domain.StatusInProgress}
	case domain.StatusResolved:
		return []domain.RequestStatus{domain.StatusInProgress, domain.StatusResolved}
	case domain.StatusClosed:
		return []domain.RequestStatus{domain.StatusInProgress, domain.StatusResolved, domain.StatusClosed}
	}
	return nil
}

func bodyOf(msg channel.Outbound) string {
	switch m := msg.(type) {
	case channel.Text:
		return m.Body
	case channel.Buttons:
		return m.Body
	case channel.Template:
		return m.Name
	}
	return ""
}

func optionIDs(msg channel.Outbound) []string {
	b, ok := msg.(channel.Buttons)
	if !ok {
		return nil
	}
	ids := make([]string, len(b.Options))
	for i, o := range b.Options {
		ids[i] = o.ID
	}
	return ids
}
