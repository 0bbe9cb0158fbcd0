package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/iaguu/axion-central-bot/internal/bot"
	"github.com/iaguu/axion-central-bot/internal/config"
	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/handlers"
	"github.com/iaguu/axion-central-bot/internal/logging"
	"github.com/iaguu/axion-central-bot/internal/provider"
	"github.com/iaguu/axion-central-bot/internal/routes"
	"github.com/iaguu/axion-central-bot/internal/services"
)

func main() {
	cfg := config.Load()
	fileHandler := logging.Setup(cfg.ErrorLogPath)

	registry, err := provider.LoadFromFile(cfg.ProvidersPath)
	if err != nil {
		slog.Error("failed to load provider registry", "path", cfg.ProvidersPath, "error", err)
		os.Exit(1)
	}
	slog.Info("provider registry loaded", "providers", len(registry.All()))

	db := database.Open(cfg.DBPath)
	if err := db.Ping(); err != nil {
		slog.Error("document store unavailable", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	// corrupted-document backups are pruned after 30 days
	cleanupDone := make(chan struct{})
	logging.StartBackupCleanup(cfg.DBPath, cleanupDone)

	// buyer notifications ride the store bot's token when present
	var notifier services.Notifier
	if cfg.StoreToken != "" {
		client, err := bot.New(cfg.StoreToken)
		if err != nil {
			slog.Error("store bot connection failed, deliveries will not be announced", "error", err)
		} else {
			notifier = client
		}
	}

	fulfillment := services.NewFulfillmentService(db, notifier)

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))

	routes.Setup(app, cfg,
		handlers.NewHealthHandler(db, registry),
		handlers.NewWebhookHandler(db, fulfillment, registry),
		handlers.NewMetricsHandler(db),
		handlers.NewAdminHandler(db),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("webhook server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down webhook server...")

	close(cleanupDone)
	if fileHandler != nil {
		fileHandler.Stop()
	}
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	slog.Info("webhook server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
