package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/iaguu/axion-central-bot/internal/config"
	"github.com/iaguu/axion-central-bot/internal/dto"
)

// AdminRequired gates the back office behind the X-Admin-Token header.
// A deployment without a configured token has no admin surface.
func AdminRequired(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminToken == "" {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access not configured",
			})
		}
		presented := c.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(cfg.AdminToken)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		return c.Next()
	}
}
