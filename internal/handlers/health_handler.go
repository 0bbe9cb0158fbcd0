package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/dto"
	"github.com/iaguu/axion-central-bot/internal/provider"
)

type HealthHandler struct {
	db       *database.Database
	registry *provider.Registry
}

func NewHealthHandler(db *database.Database, registry *provider.Registry) *HealthHandler {
	return &HealthHandler{db: db, registry: registry}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := h.db.Ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:        "ok",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		DB:            dbStatus,
		ProviderCount: len(h.registry.All()),
	})
}
