package handlers

import (
	"github.com/example/bazaar/internal/database"
	"github.com/gofiber/fiber/v2"
)

// Health reports liveness and database reachability.
func Health(c *fiber.Ctx) error {
	status := "ok"
	code := fiber.StatusOK
	if err := database.Ping(); err != nil {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{"status": status})
}
