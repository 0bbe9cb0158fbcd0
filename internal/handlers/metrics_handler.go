package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/iaguu/axion-central-bot/internal/database"
	"github.com/iaguu/axion-central-bot/internal/dto"
	"github.com/iaguu/axion-central-bot/internal/models"
)

type MetricsHandler struct {
	db *database.Database
}

func NewMetricsHandler(db *database.Database) *MetricsHandler {
	return &MetricsHandler{db: db}
}

// Snapshot reports store-wide counters in one document read.
func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	var resp dto.MetricsResponse
	h.db.View(func(doc *models.Document) {
		resp.Orders = len(doc.Orders)
		for _, o := range doc.Orders {
			if o.Status != models.StatusDelivered && !o.Status.Terminal() {
				resp.PendingOrders++
			}
		}
		resp.Users = len(doc.Users)
		for _, u := range doc.Users {
			if u.IsVIP {
				resp.VIPUsers++
			}
		}
		resp.RecentLogs = len(doc.Audit)
		for _, e := range doc.Audit {
			if strings.HasPrefix(e.A, database.FetchTimeoutAction) {
				resp.FetchTimeouts++
			}
		}
		for _, p := range doc.Store {
			resp.ProductsInStock += len(p.Stock)
		}
	})
	return c.JSON(resp)
}
