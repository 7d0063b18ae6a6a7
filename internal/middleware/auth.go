package middleware

import (
	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/config"
	"github.com/example/bazaar/internal/response"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
)

// JWTProtected guards the admin surface with a standard Authorization
// bearer token. The customer API authenticates through the resolver
// instead; this sits only in front of back-office routes.
func JWTProtected(cfg *config.Config, env *response.Envelope) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return env.Error(c, apierr.New(apierr.InvalidAuthToken).WithException(err.Error()))
		},
	})
}
