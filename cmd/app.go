package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/AzielCF/az-estate/core/config"
	"github.com/AzielCF/az-estate/core/database"
	estateRepo "github.com/AzielCF/az-estate/estate/repository"
	"github.com/AzielCF/az-estate/infrastructure/valkey"
	"github.com/AzielCF/az-estate/messaging/application"
	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/messaging/domain/session"
	sessionRepo "github.com/AzielCF/az-estate/messaging/repository"
	"github.com/AzielCF/az-estate/pkg/chatmonitor"
	"github.com/AzielCF/az-estate/pkg/eventbus"
	"github.com/AzielCF/az-estate/pkg/metrics"
	"github.com/AzielCF/az-estate/pkg/msgworker"
	"github.com/AzielCF/az-estate/pkg/phone"
	"github.com/AzielCF/az-estate/pkg/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// engine is every long lived component of one process, built from cfg and
// handed to the commands explicitly.
type engine struct {
	cfg        *config.Config
	serverID   string
	db         *gorm.DB
	vkClient   *valkey.Client
	memStore   *sessionRepo.MemorySessionStore
	sessions   *session.Manager
	bus        *eventbus.Bus
	metrics    *metrics.Collector
	monitor    *chatmonitor.Monitor
	normalizer phone.Normalizer
	dispatcher channel.Dispatcher
	router     *application.Router
	pool       *msgworker.Pool
}

// newEngine wires the engine. The caller owns Close.
func newEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	if err := utils.CreateFolder(cfg.App.StoragePath); err != nil {
		return nil, err
	}

	e := &engine{
		cfg:        cfg,
		serverID:   utils.GetPersistentServerID(cfg.App.ServerID, cfg.App.StoragePath),
		bus:        eventbus.New(256),
		metrics:    metrics.NewCollector("estate"),
		monitor:    chatmonitor.New(cfg.Monitor.Size, cfg.Monitor.TTL),
		normalizer: phone.NewNormalizer(cfg.Messaging.CountryCode),
	}

	db, err := database.NewDatabase(cfg.Database, cfg.App.Debug)
	if err != nil {
		return nil, err
	}
	e.db = db
	if err := estateRepo.InitSchema(ctx, db); err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to migrate estate schema: %w", err)
	}

	var store session.Store
	if cfg.Valkey.Enabled {
		vk, err := valkey.NewClient(ctx, valkey.Config{
			Address:   cfg.Valkey.Address,
			Password:  cfg.Valkey.Password,
			DB:        cfg.Valkey.DB,
			KeyPrefix: cfg.Valkey.KeyPrefix,
		})
		if err != nil {
			e.Close()
			return nil, err
		}
		e.vkClient = vk
		store = sessionRepo.NewValkeySessionStore(vk)
		logrus.Infof("[SESSION] Using Valkey session store at %s", cfg.Valkey.Address)
	} else {
		e.memStore = sessionRepo.NewMemorySessionStore()
		store = e.memStore
		logrus.Info("[SESSION] Using in-memory session store")
	}
	e.sessions = session.NewManager(store, cfg.Session.FlowTTL, cfg.Session.RoleTTL)

	chatLog := application.NewChatLogger(estateRepo.NewChatLogGormRepository(db))
	e.dispatcher, err = channel.NewDispatcher(channel.Options{
		Simulation: cfg.Channel.Simulation,
		Live: channel.LiveConfig{
			BaseURL:       cfg.Channel.BaseURL,
			APIVersion:    cfg.Channel.APIVersion,
			PhoneNumberID: cfg.Channel.PhoneNumberID,
			AccessToken:   cfg.Channel.AccessToken,
			Timeout:       cfg.Channel.HTTPTimeout,
		},
		Bus:     e.bus,
		Logger:  chatLog,
		Metrics: e.metrics,
		Monitor: e.monitor,
	})
	if err != nil {
		e.Close()
		return nil, err
	}

	e.router = application.NewRouter(application.Dependencies{
		Sessions:    e.sessions,
		Dispatcher:  e.dispatcher,
		Normalizer:  e.normalizer,
		Accounts:    estateRepo.NewAccountGormRepository(db),
		Properties:  estateRepo.NewPropertyGormRepository(db),
		Requests:    estateRepo.NewRequestGormRepository(db),
		KYC:         estateRepo.NewKYCGormRepository(db),
		Leads:       estateRepo.NewLeadGormRepository(db),
		ChatLog:     chatLog,
		NotifyDelay: cfg.Messaging.NotifyDelay,
		Landlord: application.LandlordSettings{
			PortalURL:  cfg.Messaging.PortalURL,
			KYCLinkTTL: cfg.Messaging.KYCLinkTTL,
			PageSize:   cfg.Messaging.PageSize,
		},
		Metrics: e.metrics,
		Monitor: e.monitor,
	})

	e.pool = msgworker.NewPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
	e.pool.OnJobDone = e.observeJob
	return e, nil
}

const slowJob = 5 * time.Second

func (e *engine) observeJob(job msgworker.Job, err error, elapsed time.Duration) {
	if elapsed > slowJob {
		logrus.Warnf("[ENGINE] %s job for %s took %s (err=%v)", job.Kind, job.Key, elapsed, err)
	}
}

// Close stops the pool first so queued events still see every dependency.
func (e *engine) Close() {
	if e.pool != nil {
		e.pool.Stop()
	}
	e.bus.Close()
	if e.memStore != nil {
		e.memStore.Close()
	}
	if e.vkClient != nil {
		e.vkClient.Close()
	}
	if err := database.Close(e.db); err != nil {
		logrus.WithError(err).Warn("[ENGINE] Failed to close database")
	}
	logrus.Info("[ENGINE] Stopped cleanly.")
}
