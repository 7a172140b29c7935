package config

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Helpers
func getString(v *viper.Viper, key, fallback string) string {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		return s
	}
	return fallback
}

func getInt(v *viper.Viper, key string, fallback int) int {
	if !v.IsSet(key) {
		return fallback
	}
	return v.GetInt(key)
}

func getDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logrus.Warnf("[CONFIG] %s=%q is not a duration, using %s", strings.ToUpper(key), raw, fallback)
		return fallback
	}
	return d
}

// getList splits comma separated values, dropping blanks.
func getList(v *viper.Viper, key string) []string {
	var out []string
	for _, part := range strings.Split(v.GetString(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AllSettings returns the non-secret settings for diagnostics.
func (c *Config) AllSettings() map[string]any {
	return map[string]any{
		"app_version":            c.App.Version,
		"app_debug":              c.App.Debug,
		"app_env":                c.App.Environment,
		"db_driver":              c.Database.Driver,
		"valkey_enabled":         c.Valkey.Enabled,
		"channel_simulation":     c.Channel.Simulation,
		"channel_api_version":    c.Channel.APIVersion,
		"session_flow_ttl":       c.Session.FlowTTL.String(),
		"session_role_ttl":       c.Session.RoleTTL.String(),
		"messaging_country_code": c.Messaging.CountryCode,
		"messaging_notify_delay": c.Messaging.NotifyDelay.String(),
		"worker_pool_size":       c.WorkerPool.Size,
		"worker_queue_size":      c.WorkerPool.QueueSize,
	}
}
