package handlers

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/dto"
	"github.com/iaguu/axion-central-bot/internal/provider"
	"github.com/iaguu/axion-central-bot/internal/services"
)

type WebhookHandler struct {
	db          *database.Database
	fulfillment *services.FulfillmentService
	registry    *provider.Registry
}

func NewWebhookHandler(db *database.Database, fulfillment *services.FulfillmentService, registry *provider.Registry) *WebhookHandler {
	return &WebhookHandler{db: db, fulfillment: fulfillment, registry: registry}
}

func (h *WebhookHandler) authorize(c *fiber.Ctx, providerName string) bool {
	token := c.Get("X-Webhook-Token")
	if token == "" {
		token = strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	}
	return h.registry.VerifyWebhookToken(providerName, token)
}

// HandleFluxoPay processes the checkout gateway's status callbacks.
// Unknown orders and unhandled statuses are acknowledged with 200 so
// the gateway stops retrying; only auth and parse failures are
// rejected.
func (h *WebhookHandler) HandleFluxoPay(c *fiber.Ctx) error {
	if !h.authorize(c, "fluxopay") {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var webhook dto.FluxoPayWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	orderID := strings.TrimPrefix(webhook.ExternalID, "order_")
	if orderID == "" {
		slog.Warn("fluxopay webhook without external id", "payment", webhook.PaymentID)
		return c.JSON(fiber.Map{"received": true})
	}
	if h.db.Order(orderID) == nil {
		slog.Warn("fluxopay webhook for unknown order", "order", orderID, "payment", webhook.PaymentID)
		return c.JSON(fiber.Map{"received": true})
	}

	switch strings.ToLower(webhook.Status) {
	case "paid", "approved", "completed":
		if _, err := h.fulfillment.ConfirmPayment(orderID); err != nil {
			slog.Error("fluxopay confirmation failed", "order", orderID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to process payment event",
			})
		}
	case "failed", "refused", "cancelled", "expired":
		if err := h.fulfillment.FailPayment(orderID); err != nil {
			slog.Error("fluxopay failure handling failed", "order", orderID, "error", err)
		}
	default:
		slog.Info("fluxopay webhook ignored", "order", orderID, "status", webhook.Status)
	}

	return c.JSON(fiber.Map{"received": true})
}

// HandlePix processes AxionPay transaction events. The order is found
// through the metadata order id, falling back to the transaction id
// recorded at charge time.
func (h *WebhookHandler) HandlePix(c *fiber.Ctx) error {
	if !h.authorize(c, "axionpay") {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var webhook dto.PixWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	orderID := webhook.Metadata.OrderID
	if orderID == "" && webhook.Transaction.ID != "" {
		if order := h.db.OrderByPaymentID(webhook.Transaction.ID); order != nil {
			orderID = order.ID
		}
	}
	if orderID == "" || h.db.Order(orderID) == nil {
		slog.Warn("pix webhook for unknown order", "transaction", webhook.Transaction.ID)
		return c.JSON(fiber.Map{"received": true})
	}

	status := strings.ToLower(webhook.Transaction.Status)
	switch {
	case status == "paid" || webhook.Type == "transaction.paid":
		if _, err := h.fulfillment.ConfirmPayment(orderID); err != nil {
			slog.Error("pix confirmation failed", "order", orderID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to process payment event",
			})
		}
	case status == "refused" || status == "expired" || status == "cancelled":
		if err := h.fulfillment.FailPayment(orderID); err != nil {
			slog.Error("pix failure handling failed", "order", orderID, "error", err)
		}
	default:
		slog.Info("pix webhook ignored", "order", orderID, "status", status, "type", webhook.Type)
	}

	return c.JSON(fiber.Map{"received": true})
}
