package identity

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Channel is the closed set of account channels a request may declare.
type Channel string

const (
	Google Channel = "google"
	Phone  Channel = "phone"
	Guest  Channel = "guest"
)

// ParseChannel reads the x-account-type header. The second return is false
// for anything outside the closed set.
func ParseChannel(c *fiber.Ctx) (Channel, bool) {
	switch Channel(strings.ToLower(c.Get("x-account-type"))) {
	case Google:
		return Google, true
	case Phone:
		return Phone, true
	case Guest:
		return Guest, true
	}
	return "", false
}

// BearerToken returns the o-auth-token header with any Bearer prefix
// stripped. Google requests carry a raw ID token, phone/guest requests a
// Bearer-prefixed session token.
func BearerToken(c *fiber.Ctx) string {
	return strings.TrimPrefix(c.Get("o-auth-token"), "Bearer ")
}
