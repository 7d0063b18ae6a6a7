package handlers

import (
	"log/slog"
	"time"

	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/config"
	"github.com/example/bazaar/internal/identity"
	"github.com/example/bazaar/internal/response"
	"github.com/example/bazaar/internal/services"
	"github.com/example/bazaar/internal/validate"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler serves the unauthenticated account endpoints: sign-in,
// session refresh, account recovery and OTP issuance. Every endpoint
// dispatches on the x-account-type header.
type AuthHandler struct {
	resolver *identity.Resolver
	env      *response.Envelope
	sms      *services.SMSClient
	cfg      *config.Config
}

func NewAuthHandler(resolver *identity.Resolver, env *response.Envelope, sms *services.SMSClient, cfg *config.Config) *AuthHandler {
	return &AuthHandler{resolver: resolver, env: env, sms: sms, cfg: cfg}
}

// In signs a client in over its declared channel, creating the account on
// first contact.
func (h *AuthHandler) In(c *fiber.Ctx) error {
	channel, ok := identity.ParseChannel(c)
	if !ok {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields))
	}

	switch channel {
	case identity.Google:
		return h.inGoogle(c)
	case identity.Phone:
		return h.inPhone(c)
	default:
		return h.inGuest(c)
	}
}

func (h *AuthHandler) inGoogle(c *fiber.Ctx) error {
	if identity.BearerToken(c) == "" {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{
			"fields": map[string]string{"o-auth-token": "The o-auth-token header is required."},
		}))
	}

	user, aerr := h.resolver.SignInGoogle(identity.BearerToken(c))
	if aerr != nil {
		return h.env.Error(c, aerr)
	}

	block := h.env.User(c, user, fiber.Map{
		"auth":  true,
		"name":  strVal(user.Name),
		"email": strVal(user.Email),
		"photo": strVal(user.Photo),
	})
	if user.Phone != nil {
		block["phone"] = *user.Phone
	}
	return h.env.Success(c, fiber.Map{"user": block})
}

func (h *AuthHandler) inPhone(c *fiber.Ctx) error {
	fields := validate.FromBody(c)
	if errs := validate.Check(fields, validate.Rules{
		"phone":               "required|numeric",
		"x-verification-code": "required|integer",
	}); errs != nil {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{"fields": errs}))
	}

	user, session, aerr := h.resolver.SignInPhone(fields.Str("phone"), fields.Str("x-verification-code"))
	if aerr != nil {
		return h.env.Error(c, aerr)
	}

	block := h.env.User(c, user, fiber.Map{
		"auth":           true,
		"name":           strVal(user.Name),
		"phone":          strVal(user.Phone),
		"o-auth-token":   "Bearer " + session.Token,
		"o-auth-expires": session.ExpiresAt,
	})
	if user.Email != nil {
		block["email"] = *user.Email
	}
	if user.Photo != nil {
		block["photo"] = *user.Photo
	}
	return h.env.Success(c, fiber.Map{"user": block})
}

func (h *AuthHandler) inGuest(c *fiber.Ctx) error {
	fields := validate.FromBody(c)
	if errs := validate.Check(fields, validate.Rules{"guest": "required|numeric"}); errs != nil {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{"fields": errs}))
	}

	guest := fields.Int64("guest", 0)
	user, session, aerr := h.resolver.SignInGuest(guest)
	if aerr != nil {
		return h.env.Error(c, aerr)
	}

	block := h.env.User(c, user, fiber.Map{
		"auth":           true,
		"name":           strVal(user.Name),
		"guest":          guest,
		"o-auth-token":   "Bearer " + session.Token,
		"o-auth-expires": session.ExpiresAt,
	})
	return h.env.Success(c, fiber.Map{"user": block})
}

// Refresh re-issues a session token for phone and guest accounts. Google
// sessions are refreshed client-side against Google, never here.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	channel, ok := identity.ParseChannel(c)
	if !ok || channel == identity.Google {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields))
	}

	fields := validate.FromBody(c)

	switch channel {
	case identity.Phone:
		if errs := validate.Check(fields, validate.Rules{
			"x-account-id": "required|numeric",
			"phone":        "required|numeric",
		}); errs != nil {
			return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{"fields": errs}))
		}
		user, session, aerr := h.resolver.RefreshPhone(uint(fields.Int64("x-account-id", 0)), fields.Str("phone"))
		if aerr != nil {
			return h.env.Error(c, aerr)
		}
		block := h.env.User(c, user, fiber.Map{
			"o-auth-token":   "Bearer " + session.Token,
			"o-auth-expires": session.ExpiresAt,
		})
		return h.env.Success(c, fiber.Map{"user": block})

	default:
		if errs := validate.Check(fields, validate.Rules{
			"x-account-id": "required|numeric",
			"guest":        "required|numeric",
		}); errs != nil {
			return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{"fields": errs}))
		}
		user, session, aerr := h.resolver.RefreshGuest(uint(fields.Int64("x-account-id", 0)), fields.Int64("guest", 0))
		if aerr != nil {
			return h.env.Error(c, aerr)
		}
		block := h.env.User(c, user, fiber.Map{
			"name":           strVal(user.Name),
			"o-auth-token":   "Bearer " + session.Token,
			"o-auth-expires": session.ExpiresAt,
		})
		return h.env.Success(c, fiber.Map{"user": block})
	}
}

// Recover restores a soft-deleted account. Google matches by verified
// email, phone by number; guest accounts are never recoverable.
func (h *AuthHandler) Recover(c *fiber.Ctx) error {
	channel, ok := identity.ParseChannel(c)
	if !ok || channel == identity.Guest {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields))
	}

	if channel == identity.Google {
		if identity.BearerToken(c) == "" {
			return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{
				"fields": map[string]string{"o-auth-token": "The o-auth-token header is required."},
			}))
		}
		user, aerr := h.resolver.RecoverGoogle(identity.BearerToken(c))
		if aerr != nil {
			return h.env.Error(c, aerr)
		}
		return h.env.Success(c, fiber.Map{
			"user":    h.env.User(c, user, nil),
			"message": "Account was recovered successfully.",
		})
	}

	fields := validate.FromBody(c)
	if errs := validate.Check(fields, validate.Rules{"phone": "required|numeric"}); errs != nil {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{"fields": errs}))
	}

	user, session, aerr := h.resolver.RecoverPhone(fields.Str("phone"))
	if aerr != nil {
		return h.env.Error(c, aerr)
	}
	block := h.env.User(c, user, fiber.Map{
		"auth":           true,
		"o-auth-token":   "Bearer " + session.Token,
		"o-auth-expires": session.ExpiresAt,
	})
	return h.env.Success(c, fiber.Map{
		"user":    block,
		"message": "Account was recovered successfully.",
	})
}

// Verify issues a fresh OTP for the phone, resolving or creating the
// account first, and relays the SMS gateway's raw response.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	channel, ok := identity.ParseChannel(c)
	if !ok || channel != identity.Phone {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields))
	}

	fields := validate.FromBody(c)
	if errs := validate.Check(fields, validate.Rules{"phone": "required|numeric"}); errs != nil {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{"fields": errs}))
	}
	phone := fields.Str("phone")

	user, aerr := h.resolver.EnsurePhoneAccount(phone)
	if aerr != nil {
		return h.env.Error(c, aerr)
	}

	code, err := h.resolver.IssueVerification(phone)
	if err != nil {
		return h.env.Error(c, apierr.New(apierr.InternalServerError).WithException(err.Error()))
	}

	gateway, err := h.sms.SendOTP(phone, code)
	if err != nil {
		slog.Warn("otp dispatch failed", "error", err, "phone", phone)
	}

	block := h.env.User(c, user, fiber.Map{
		"auth":  true,
		"phone": phone,
	})
	return h.env.Success(c, fiber.Map{
		"user":     block,
		"message":  "Successfully sent OTP.",
		"expires":  time.Now().Add(h.cfg.OTPExpiry).UnixMilli(),
		"response": gateway,
	})
}
