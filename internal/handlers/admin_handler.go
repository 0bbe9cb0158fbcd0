package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/dto"
	"github.com/iaguu/axion-central-bot/internal/models"
)

// AdminHandler exposes the order back office behind the admin token.
type AdminHandler struct {
	db *database.Database
}

func NewAdminHandler(db *database.Database) *AdminHandler {
	return &AdminHandler{db: db}
}

func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	if userID := c.Query("user_id"); userID != "" {
		return c.JSON(h.db.OrdersByUser(userID))
	}
	return c.JSON(h.db.Orders())
}

func (h *AdminHandler) GetOrder(c *fiber.Ctx) error {
	order := h.db.Order(c.Params("id"))
	if order == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Order not found",
		})
	}
	return c.JSON(order)
}

func (h *AdminHandler) transition(c *fiber.Ctx, next models.OrderStatus, verb string) error {
	id := c.Params("id")
	updated, err := h.db.UpdateOrder(id, models.OrderPatch{Status: &next})
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: "Order cannot be " + verb + " from its current status",
		})
	}
	if updated == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Order not found",
		})
	}
	h.db.AddLog("order " + id + " " + verb + " by admin")
	slog.Info("admin order action", "order", id, "action", verb)
	return c.JSON(updated)
}

func (h *AdminHandler) RefundOrder(c *fiber.Ctx) error {
	return h.transition(c, models.StatusRefunded, "refunded")
}

func (h *AdminHandler) CancelOrder(c *fiber.Ctx) error {
	return h.transition(c, models.StatusCancelled, "cancelled")
}

func (h *AdminHandler) ListLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	return c.JSON(h.db.Logs(limit))
}
