package config

import (
	"path/filepath"
	"strings"
	"time"

	pkgError "github.com/AzielCF/az-estate/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Valkey     ValkeyConfig
	Channel    ChannelConfig
	Session    SessionConfig
	Messaging  MessagingConfig
	WorkerPool WorkerPoolConfig
	Monitor    MonitorConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	BaseUrl            string
	CorsAllowedOrigins []string
	ServerID           string
	StoragePath        string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB Name for Postgres
}

type ValkeyConfig struct {
	Enabled   bool
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

type ChannelConfig struct {
	// Simulation is true only when CHANNEL_SIMULATION is exactly "true".
	Simulation    bool
	PhoneNumberID string
	AccessToken   string
	BaseURL       string
	APIVersion    string
	VerifyToken   string
	HTTPTimeout   time.Duration
}

type SessionConfig struct {
	FlowTTL time.Duration
	RoleTTL time.Duration
}

type MessagingConfig struct {
	CountryCode string
	NotifyDelay time.Duration
	PortalURL   string
	KYCLinkTTL  time.Duration
	PageSize    int
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

type MonitorConfig struct {
	Size int
	TTL  time.Duration
}

const Version = "v1.0.0"

// SetDefaults registers every known key on v so AutomaticEnv can resolve it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_port", "3000")
	v.SetDefault("app_debug", false)
	v.SetDefault("app_env", "development")
	v.SetDefault("app_basic_auth", "")
	v.SetDefault("app_base_path", "")
	v.SetDefault("app_base_url", "http://localhost:3000")
	v.SetDefault("app_trusted_proxies", "")
	v.SetDefault("app_cors_allowed_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("app_storage_path", "storages")
	v.SetDefault("server_id", "")

	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "")

	v.SetDefault("valkey_enabled", false)
	v.SetDefault("valkey_address", "localhost:6379")
	v.SetDefault("valkey_password", "")
	v.SetDefault("valkey_db", 0)
	v.SetDefault("valkey_key_prefix", "estate:")

	v.SetDefault("channel_simulation", "")
	v.SetDefault("channel_phone_number_id", "")
	v.SetDefault("channel_access_token", "")
	v.SetDefault("channel_base_url", "https://graph.facebook.com")
	v.SetDefault("channel_api_version", "v21.0")
	v.SetDefault("channel_verify_token", "")
	v.SetDefault("channel_http_timeout", "15s")

	v.SetDefault("session_flow_ttl", "5m")
	v.SetDefault("session_role_ttl", "24h")

	v.SetDefault("messaging_country_code", "234")
	v.SetDefault("messaging_notify_delay", "1s")
	v.SetDefault("messaging_portal_url", "http://localhost:3000")
	v.SetDefault("messaging_kyc_link_ttl", "72h")
	v.SetDefault("messaging_page_size", 5)

	v.SetDefault("message_worker_pool_size", 6)
	v.SetDefault("message_worker_queue_size", 250)

	v.SetDefault("monitor_size", 500)
	v.SetDefault("monitor_ttl", "1h")
}

// LoadConfig builds the configuration tree from v and validates it. All
// invalid settings are reported together in one *pkgError.ConfigError.
func LoadConfig(v *viper.Viper) (*Config, error) {
	storage := getString(v, "app_storage_path", "storages")

	dbName := v.GetString("db_name")
	driver := strings.ToLower(getString(v, "db_driver", "sqlite"))
	if dbName == "" {
		if driver == "postgres" {
			dbName = "estate"
		} else {
			dbName = filepath.Join(storage, "estate.db")
		}
	}

	cfg := &Config{
		App: AppConfig{
			Version:            Version,
			Port:               getString(v, "app_port", "3000"),
			Debug:              v.GetBool("app_debug"),
			Environment:        getString(v, "app_env", "development"),
			BasicAuth:          getList(v, "app_basic_auth"),
			BasePath:           strings.TrimSuffix(v.GetString("app_base_path"), "/"),
			TrustedProxies:     getList(v, "app_trusted_proxies"),
			BaseUrl:            getString(v, "app_base_url", "http://localhost:3000"),
			CorsAllowedOrigins: getList(v, "app_cors_allowed_origins"),
			ServerID:           v.GetString("server_id"),
			StoragePath:        storage,
		},
		Database: DatabaseConfig{
			Driver:   driver,
			Host:     getString(v, "db_host", "localhost"),
			Port:     getInt(v, "db_port", 5432),
			User:     getString(v, "db_user", "postgres"),
			Password: v.GetString("db_password"),
			Name:     dbName,
		},
		Valkey: ValkeyConfig{
			Enabled:   v.GetBool("valkey_enabled"),
			Address:   getString(v, "valkey_address", "localhost:6379"),
			Password:  v.GetString("valkey_password"),
			DB:        v.GetInt("valkey_db"),
			KeyPrefix: v.GetString("valkey_key_prefix"),
		},
		Channel: ChannelConfig{
			Simulation:    ParseSimulation(v.GetString("channel_simulation")),
			PhoneNumberID: strings.TrimSpace(v.GetString("channel_phone_number_id")),
			AccessToken:   strings.TrimSpace(v.GetString("channel_access_token")),
			BaseURL:       getString(v, "channel_base_url", "https://graph.facebook.com"),
			APIVersion:    getString(v, "channel_api_version", "v21.0"),
			VerifyToken:   v.GetString("channel_verify_token"),
			HTTPTimeout:   getDuration(v, "channel_http_timeout", 15*time.Second),
		},
		Session: SessionConfig{
			FlowTTL: getDuration(v, "session_flow_ttl", 5*time.Minute),
			RoleTTL: getDuration(v, "session_role_ttl", 24*time.Hour),
		},
		Messaging: MessagingConfig{
			CountryCode: strings.TrimPrefix(getString(v, "messaging_country_code", "234"), "+"),
			NotifyDelay: getDuration(v, "messaging_notify_delay", time.Second),
			PortalURL:   getString(v, "messaging_portal_url", "http://localhost:3000"),
			KYCLinkTTL:  getDuration(v, "messaging_kyc_link_ttl", 72*time.Hour),
			PageSize:    getInt(v, "messaging_page_size", 5),
		},
		WorkerPool: WorkerPoolConfig{
			Size:      getInt(v, "message_worker_pool_size", 6),
			QueueSize: getInt(v, "message_worker_queue_size", 250),
		},
		Monitor: MonitorConfig{
			Size: getInt(v, "monitor_size", 500),
			TTL:  getDuration(v, "monitor_ttl", time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseSimulation reads CHANNEL_SIMULATION. "true" enables simulation, "false"
// or an empty value disables it, anything else disables it with a warning.
func ParseSimulation(raw string) bool {
	switch strings.TrimSpace(raw) {
	case "true":
		return true
	case "false", "":
		return false
	default:
		logrus.Warnf("[CONFIG] CHANNEL_SIMULATION=%q is not true/false, simulation stays disabled", raw)
		return false
	}
}

// Validate checks the settings every component needs. Channel credentials are
// only required in live mode.
func (c *Config) Validate() error {
	live := !c.Channel.Simulation
	errs := validation.Errors{
		"CHANNEL_PHONE_NUMBER_ID":   validation.Validate(c.Channel.PhoneNumberID, validation.When(live, validation.Required)),
		"CHANNEL_ACCESS_TOKEN":      validation.Validate(c.Channel.AccessToken, validation.When(live, validation.Required)),
		"APP_PORT":                  validation.Validate(c.App.Port, validation.Required, is.Port),
		"DB_DRIVER":                 validation.Validate(c.Database.Driver, validation.In("sqlite", "postgres")),
		"DB_NAME":                   validation.Validate(c.Database.Name, validation.Required),
		"VALKEY_ADDRESS":            validation.Validate(c.Valkey.Address, validation.When(c.Valkey.Enabled, validation.Required)),
		"SESSION_FLOW_TTL":          validation.Validate(c.Session.FlowTTL, validation.Required, validation.Min(time.Second)),
		"SESSION_ROLE_TTL":          validation.Validate(c.Session.RoleTTL, validation.Required, validation.Min(c.Session.FlowTTL)),
		"MESSAGING_COUNTRY_CODE":    validation.Validate(c.Messaging.CountryCode, validation.Required, is.Digit, validation.Length(1, 4)),
		"MESSAGING_PORTAL_URL":      validation.Validate(c.Messaging.PortalURL, validation.Required, is.URL),
		"MESSAGE_WORKER_POOL_SIZE":  validation.Validate(c.WorkerPool.Size, validation.Required, validation.Min(1)),
		"MESSAGE_WORKER_QUEUE_SIZE": validation.Validate(c.WorkerPool.QueueSize, validation.Required, validation.Min(1)),
	}.Filter()
	if errs != nil {
		return &pkgError.ConfigError{Component: "application", Err: errs}
	}
	return nil
}
