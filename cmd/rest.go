package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AzielCF/az-estate/messaging/channel"
	"github.com/AzielCF/az-estate/ui/rest"
	"github.com/AzielCF/az-estate/ui/rest/middleware"
	"github.com/AzielCF/az-estate/ui/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the channel webhook and the operator API over http",
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := newEngine(ctx, cfg)
	if err != nil {
		logrus.Fatalf("[REST] %v", err)
	}
	eng.pool.Start(ctx)

	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		BodyLimit:               1 << 20,
		Network:                 "tcp",
		AppName:                 "Az-Estate Messaging Engine",
		ServerHeader:            "Hidden",
	}

	// Configure proxy settings if trusted proxies are specified
	if len(cfg.App.TrustedProxies) > 0 {
		fiberConfig.TrustedProxies = cfg.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedHost
	}

	app := fiber.New(fiberConfig)

	app.Use(requestid.New())

	origins := strings.Join(cfg.App.CorsAllowedOrigins, ", ")
	if !strings.Contains(origins, cfg.App.BaseUrl) {
		origins += ", " + cfg.App.BaseUrl
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.Recovery())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "SAMEORIGIN",
		HSTSMaxAge:            31536000, // 1 Year
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; connect-src 'self' http://localhost:* ws://localhost:*;",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	if cfg.App.Debug {
		app.Use(logger.New())
	}

	base := app.Group(cfg.App.BasePath)

	// Provider facing routes stay outside basic auth.
	rest.InitRestWebhook(base, eng.router, eng.pool, eng.normalizer, cfg.Channel.VerifyToken)
	rest.InitRestHealth(base, cfg.App.Version, eng.dispatcher, map[string]rest.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := eng.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"valkey": func(ctx context.Context) error {
			if eng.vkClient == nil {
				return nil
			}
			return eng.vkClient.Ping(ctx)
		},
	})

	apiGroup := base.Group("/api")
	if len(cfg.App.BasicAuth) > 0 {
		account := make(map[string]string)
		for _, basicAuth := range cfg.App.BasicAuth {
			ba := strings.SplitN(basicAuth, ":", 2)
			if len(ba) != 2 {
				logrus.Fatalln("Basic auth is not valid, please this following format <user>:<secret>")
			}
			account[ba[0]] = ba[1]
		}
		apiGroup.Use(basicauth.New(basicauth.Config{
			Users: account,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
		}))
	} else {
		logrus.Warn("[REST] APP_BASIC_AUTH is empty, the operator API is public")
	}

	rest.InitRestMetrics(base, eng.metrics)
	var sessionCounter rest.SessionCounter
	if eng.memStore != nil {
		sessionCounter = eng.memStore
	}
	rest.InitRestMonitoring(apiGroup, eng.monitor, eng.pool, eng.bus, sessionCounter, eng.serverID)
	rest.InitRestSession(apiGroup, eng.sessions, eng.normalizer)
	rest.InitRestSimulator(apiGroup, eng.router, eng.dispatcher, eng.pool, eng.normalizer)

	if eng.dispatcher.Mode() == channel.ModeSimulation {
		hub := websocket.NewHub(eng.bus, eng.vkClient, eng.serverID)
		hub.RegisterRoutes(apiGroup)
		go hub.Run(ctx)
	}

	apiGroup.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"path":  c.Path(),
		})
	})

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Reception of termination signal, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Errorf("[REST] Failed to start: %v", err)
	}

	eng.Close()
}
