// Package response builds the uniform success/error JSON envelope every
// endpoint returns. Outgoing entities are shaped at the type level: models
// hide foreign keys, internal prices and timestamps through their JSON tags,
// so nothing stripped here can leak by accident.
package response

import (
	"encoding/json"
	"strings"

	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/models"
	"github.com/gofiber/fiber/v2"
)

// Account channels recognized in the x-account-type header.
const (
	ChannelGoogle = "google"
	ChannelPhone  = "phone"
	ChannelGuest  = "guest"
)

// Envelope renders API responses. Exception details are only emitted when
// the service runs in debug mode.
type Envelope struct {
	debug bool
}

func NewEnvelope(debug bool) *Envelope {
	return &Envelope{debug: debug}
}

// Success renders {success:true, code:200, body}.
func (e *Envelope) Success(c *fiber.Ctx, body fiber.Map) error {
	return e.send(c, fiber.StatusOK, fiber.Map{
		"success": true,
		"code":    fiber.StatusOK,
		"body":    body,
	})
}

// Error renders the catalog entry for the error's code, merging any extra
// body fields it carries.
func (e *Envelope) Error(c *fiber.Ctx, apiErr *apierr.Error) error {
	body := fiber.Map{
		"error":   string(apiErr.Code),
		"message": apiErr.Message(),
	}
	if e.debug && apiErr.Exception != "" {
		body["exception"] = apiErr.Exception
	}
	for k, v := range apiErr.Extra {
		body[k] = v
	}
	status := apiErr.Status()
	return e.send(c, status, fiber.Map{
		"success": false,
		"code":    status,
		"body":    body,
	})
}

// User emits the account header block keyed off the request's declared
// channel. Returns nil for unrecognized types; callers must guard.
func (e *Envelope) User(c *fiber.Ctx, user *models.User, extra fiber.Map) fiber.Map {
	channel := strings.ToLower(c.Get("x-account-type"))
	switch channel {
	case ChannelGoogle, ChannelPhone, ChannelGuest:
		out := fiber.Map{
			"x-account-id":   user.ID,
			"x-account-type": channel,
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}
	return nil
}

func (e *Envelope) send(c *fiber.Ctx, status int, payload fiber.Map) error {
	if c.Query("pretty") == "true" {
		b, err := json.MarshalIndent(payload, "", "    ")
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(status).Send(b)
	}
	return c.Status(status).JSON(payload)
}
