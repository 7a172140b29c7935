package cmd

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/AzielCF/az-estate/core/config"
	pkgError "github.com/AzielCF/az-estate/pkg/error"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	v   = viper.New()
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "az-estate",
	Short: "Conversational messaging engine for property management",
	Long: `az-estate answers tenants, facility managers, landlords and new contacts over a
WhatsApp Cloud style channel, or over a local simulator when CHANNEL_SIMULATION=true.`,
}

func init() {
	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Initialize flags first, before any subcommands are added
	initFlags()

	cobra.OnInitialize(initEnvConfig)
}

// initEnvConfig loads .env, environment variables and flags into cfg. Any
// invalid setting stops the process with every problem listed.
func initEnvConfig() {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("[CONFIG] No .env file loaded: %v", err)
	}

	config.SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	loaded, err := config.LoadConfig(v)
	if err != nil {
		var cfgErr *pkgError.ConfigError
		if errors.As(err, &cfgErr) {
			logrus.Fatalf("[CONFIG] %v", cfgErr)
		}
		logrus.Fatalf("[CONFIG] Failed to load configuration: %v", err)
	}
	cfg = loaded

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.Debugf("[CONFIG] %v", cfg.AllSettings())
	}
}

func initFlags() {
	flags := rootCmd.PersistentFlags()

	// Application flags
	flags.StringP("port", "p", "", "change port number with --port <number> | example: --port=8080")
	flags.BoolP("debug", "d", false, "hide or displaying log with --debug <true/false> | example: --debug=true")
	flags.StringP("basic-auth", "b", "", "basic auth credential | -b=yourUsername:yourPassword")
	flags.String("base-path", "", `base path for subpath deployment --base-path <string> | example: --base-path="/estate"`)
	flags.String("trusted-proxies", "", `trusted proxy IP ranges for reverse proxy deployments | example: --trusted-proxies="10.0.0.0/8"`)

	// Database flags
	flags.String("db-driver", "", `database driver --db-driver <sqlite|postgres>`)
	flags.String("db-name", "", `sqlite file or postgres database name | example: --db-name="storages/estate.db"`)

	// Channel flags
	flags.String("simulation", "", `route outbound messages to the simulator --simulation <true/false>`)

	// Message Worker Pool flags
	flags.Int("message-workers", 0, `number of concurrent message workers --message-workers <number> | example: --message-workers=10 (default: 6)`)
	flags.Int("message-queue-size", 0, `queue size per message worker --message-queue-size <number> | example: --message-queue-size=500 (default: 250)`)

	bindings := map[string]string{
		"app_port":                  "port",
		"app_debug":                 "debug",
		"app_basic_auth":            "basic-auth",
		"app_base_path":             "base-path",
		"app_trusted_proxies":       "trusted-proxies",
		"db_driver":                 "db-driver",
		"db_name":                   "db-name",
		"channel_simulation":        "simulation",
		"message_worker_pool_size":  "message-workers",
		"message_worker_queue_size": "message-queue-size",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			logrus.Fatalf("[CONFIG] Failed to bind --%s: %v", flag, err)
		}
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
