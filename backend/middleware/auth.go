package middleware

import (
	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// AuthMiddleware resolves the bearer token into a services.Identity stored in locals.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.ExtractClaimsFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, err.Error())
		}

		c.Locals(identityKey, services.Identity{
			UserID:   claims.UserID,
			Username: claims.Username,
			Email:    claims.Email,
			Role:     claims.Role,
		})
		return c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := CurrentIdentity(c)
		if !ok {
			return utils.Unauthorized(c, "Unauthorized")
		}
		if identity.Role != models.RoleAdmin {
			return utils.Forbidden(c, "Forbidden - Admin access required")
		}
		return c.Next()
	}
}

func CurrentIdentity(c *fiber.Ctx) (services.Identity, bool) {
	identity, ok := c.Locals(identityKey).(services.Identity)
	return identity, ok
}
