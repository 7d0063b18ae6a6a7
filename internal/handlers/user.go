package handlers

import (
	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/identity"
	"github.com/example/bazaar/internal/models"
	"github.com/example/bazaar/internal/response"
	"github.com/example/bazaar/internal/validate"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserHandler serves the authenticated account endpoints: sign-out,
// channel linking, profile updates and account deletion.
type UserHandler struct {
	db       *gorm.DB
	resolver *identity.Resolver
	env      *response.Envelope
}

func NewUserHandler(db *gorm.DB, resolver *identity.Resolver, env *response.Envelope) *UserHandler {
	return &UserHandler{db: db, resolver: resolver, env: env}
}

// Out signs the current credential out. Guest accounts with nothing
// linked are retired entirely.
func (h *UserHandler) Out(c *fiber.Ctx) error {
	user, aerr := h.resolver.Current(c)
	if aerr != nil {
		return h.env.Error(c, aerr)
	}

	if aerr := h.resolver.SignOut(c, user); aerr != nil {
		return h.env.Error(c, aerr)
	}

	return h.env.Success(c, fiber.Map{
		"user":    h.env.User(c, user, nil),
		"message": "Successfully logged out of account.",
	})
}

// Link merges a second channel onto the current account: google accounts
// link a verified phone, phone accounts link a Google identity, and guest
// accounts pick either via x-link-type.
func (h *UserHandler) Link(c *fiber.Ctx) error {
	channel, ok := identity.ParseChannel(c)
	if !ok {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields))
	}

	switch channel {
	case identity.Google:
		return h.linkPhone(c, channel)
	case identity.Phone:
		return h.linkGoogle(c, channel)
	default:
		fields := validate.FromBody(c)
		if errs := validate.Check(fields, validate.Rules{"x-link-type": "required|in:google,phone"}); errs != nil {
			return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{"fields": errs}))
		}
		if fields.Str("x-link-type") == "google" {
			return h.linkGoogle(c, channel)
		}
		return h.linkPhone(c, channel)
	}
}

func (h *UserHandler) linkPhone(c *fiber.Ctx, channel identity.Channel) error {
	fields := validate.FromBody(c)
	if errs := validate.Check(fields, validate.Rules{
		"phone":               "required|numeric",
		"x-verification-code": "required|integer",
	}); errs != nil {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{"fields": errs}))
	}

	user, aerr := h.resolver.Current(c)
	if aerr != nil {
		return h.env.Error(c, aerr)
	}

	if aerr := h.resolver.LinkPhone(user, fields.Str("phone"), fields.Str("x-verification-code")); aerr != nil {
		return h.env.Error(c, aerr)
	}

	if channel == identity.Guest {
		block := h.env.User(c, user, fiber.Map{
			"name":  strVal(user.Name),
			"phone": strVal(user.Phone),
		})
		return h.env.Success(c, fiber.Map{
			"user":    block,
			"message": "Successfully linked Guest Account and Phone Number.",
		})
	}

	block := h.env.User(c, user, fiber.Map{
		"name":  strVal(user.Name),
		"email": strVal(user.Email),
		"photo": strVal(user.Photo),
		"phone": strVal(user.Phone),
	})
	return h.env.Success(c, fiber.Map{
		"user":    block,
		"message": "Successfully linked Google Account and Phone Number.",
	})
}

func (h *UserHandler) linkGoogle(c *fiber.Ctx, channel identity.Channel) error {
	fields := validate.FromBody(c)
	if errs := validate.Check(fields, validate.Rules{"o-auth-token": "required|string"}); errs != nil {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{"fields": errs}))
	}

	user, aerr := h.resolver.Current(c)
	if aerr != nil {
		return h.env.Error(c, aerr)
	}

	if aerr := h.resolver.LinkGoogle(user, fields.Str("o-auth-token")); aerr != nil {
		return h.env.Error(c, aerr)
	}

	if channel == identity.Guest {
		block := h.env.User(c, user, fiber.Map{
			"name":   strVal(user.Name),
			"email":  strVal(user.Email),
			"photo":  strVal(user.Photo),
			"google": strVal(user.GoogleID),
		})
		return h.env.Success(c, fiber.Map{
			"user":    block,
			"message": "Successfully linked Guest Account and Google Account.",
		})
	}

	block := h.env.User(c, user, fiber.Map{
		"name":   strVal(user.Name),
		"email":  strVal(user.Email),
		"photo":  strVal(user.Photo),
		"phone":  strVal(user.Phone),
		"google": strVal(user.GoogleID),
	})
	return h.env.Success(c, fiber.Map{
		"user":    block,
		"message": "Successfully linked Phone Number and Google Account.",
	})
}

// Update edits the account profile. Google accounts re-adopt the verified
// token's name and email and may attach a phone from the body; phone
// accounts take name and phone from the body. Guests have no profile.
func (h *UserHandler) Update(c *fiber.Ctx) error {
	channel, ok := identity.ParseChannel(c)
	if !ok || channel == identity.Guest {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields))
	}

	updates := map[string]any{}
	fields := validate.FromBody(c)

	if channel == identity.Phone {
		if errs := validate.Check(fields, validate.Rules{
			"name":  "required|string",
			"phone": "required|numeric",
		}); errs != nil {
			return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{"fields": errs}))
		}
		updates["name"] = fields.Str("name")
		updates["phone"] = fields.Str("phone")
	}

	user, aerr := h.resolver.Current(c)
	if aerr != nil {
		return h.env.Error(c, aerr)
	}

	if channel == identity.Google {
		payload, aerr := h.resolver.GooglePayloadFor(c)
		if aerr != nil {
			return h.env.Error(c, aerr)
		}
		updates["name"] = payload.Name
		updates["email"] = payload.Email
		if fields.Has("phone") {
			updates["phone"] = fields.Str("phone")
		}
	}

	if err := h.db.Model(user).Updates(updates).Error; err != nil {
		return h.env.Error(c, apierr.New(apierr.InternalServerError).WithException(err.Error()))
	}
	if err := h.db.First(user, user.ID).Error; err != nil {
		return h.env.Error(c, apierr.New(apierr.InternalServerError).WithException(err.Error()))
	}

	return h.env.Success(c, fiber.Map{
		"user":    h.env.User(c, user, nil),
		"message": "Account was updated successfully.",
	})
}

// Delete deactivates and soft-deletes the account after invalidating its
// credential. The row stays recoverable until a recover call or, for bare
// guests, until the sweep removes it.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	channel, ok := identity.ParseChannel(c)
	if !ok {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields))
	}

	user, aerr := h.resolver.Current(c)
	if aerr != nil {
		return h.env.Error(c, aerr)
	}

	if aerr := h.resolver.SignOut(c, user); aerr != nil {
		return h.env.Error(c, aerr)
	}

	// SignOut already retires bare guest accounts.
	if channel != identity.Guest {
		if err := h.db.Model(user).Update("status", models.StatusInactive).Error; err != nil {
			return h.env.Error(c, apierr.New(apierr.InternalServerError).WithException(err.Error()))
		}
		if err := h.db.Delete(user).Error; err != nil {
			return h.env.Error(c, apierr.New(apierr.InternalServerError).WithException(err.Error()))
		}
	}

	return h.env.Success(c, fiber.Map{
		"user":    h.env.User(c, user, nil),
		"message": "Account was deleted successfully.",
	})
}
