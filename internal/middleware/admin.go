package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/onboarding-backend/internal/dto"
)

const HeaderAdminToken = "X-Admin-Token"

// AdminRequired admits requests carrying the configured admin token or an
// identity with the admin role. Must run after ResolveIdentity.
func AdminRequired(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" {
			sent := c.Get(HeaderAdminToken)
			if subtle.ConstantTimeCompare([]byte(sent), []byte(cfg.AdminToken)) == 1 {
				return c.Next()
			}
		}

		id := GetIdentity(c)
		if id.IsAdmin() {
			return c.Next()
		}
		if id.Anonymous {
			return unauthorized(c, "Unauthorized")
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: "Admin access required",
		})
	}
}
