package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/iaguu/axion-central-bot/internal/config"
	"github.com/iaguu/axion-central-bot/internal/handlers"
	"github.com/iaguu/axion-central-bot/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	webhookHandler *handlers.WebhookHandler,
	metricsHandler *handlers.MetricsHandler,
	adminHandler *handlers.AdminHandler,
) {
	// General rate limiter: 60 req/min per IP
	app.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	app.Get("/health", healthHandler.Check)

	// Gateways authenticate per provider, no admin token here
	app.Post("/webhook/fluxopay", webhookHandler.HandleFluxoPay)
	app.Post("/webhooks/pix", webhookHandler.HandlePix)

	admin := app.Group("/admin", middleware.AdminRequired(cfg))
	admin.Get("/metrics", metricsHandler.Snapshot)
	admin.Get("/orders", adminHandler.ListOrders)
	admin.Get("/orders/:id", adminHandler.GetOrder)
	admin.Post("/orders/:id/refund", adminHandler.RefundOrder)
	admin.Post("/orders/:id/cancel", adminHandler.CancelOrder)
	admin.Get("/logs", adminHandler.ListLogs)
}
