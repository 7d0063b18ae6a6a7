package middleware

import (
	"strconv"

	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/config"
	"github.com/example/bazaar/internal/models"
	"github.com/example/bazaar/internal/response"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// AdminRequired checks, in order:
// 1. the X-Admin-Token header against the configured operator token
// 2. the bearer token's subject against the users table Role field
func AdminRequired(db *gorm.DB, cfg *config.Config, env *response.Envelope) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}

		token, ok := c.Locals("user").(*jwt.Token)
		if !ok || token == nil {
			return env.Error(c, apierr.New(apierr.InvalidAuthToken))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return env.Error(c, apierr.New(apierr.InvalidAuthToken))
		}

		sub, _ := claims["sub"].(string)
		if sub != "" {
			userID, err := strconv.ParseUint(sub, 10, 64)
			if err == nil {
				var user models.User
				if err := db.First(&user, userID).Error; err == nil && user.HasRole(models.RoleAdmin) {
					return c.Next()
				}
			}
		}

		return env.Error(c, apierr.New(apierr.MissingRequiredPermissions))
	}
}
