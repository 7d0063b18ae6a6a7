// Package gate runs the shared pipeline in front of every protected
// handler: field validation, then authentication, then the handler itself.
// It is the single place where unanticipated runtime failures are caught
// and downgraded to INTERNAL_SERVER_ERROR.
package gate

import (
	"fmt"
	"log/slog"

	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/models"
	"github.com/example/bazaar/internal/response"
	"github.com/example/bazaar/internal/validate"
	"github.com/gofiber/fiber/v2"
)

// Resolver authenticates the current request.
type Resolver interface {
	Current(c *fiber.Ctx) (*models.User, *apierr.Error)
}

// Handler is the business-logic closure run once validation and
// authentication have passed.
type Handler func(user *models.User, c *fiber.Ctx, env *response.Envelope) error

type Gate struct {
	env      *response.Envelope
	resolver Resolver
}

func New(env *response.Envelope, resolver Resolver) *Gate {
	return &Gate{env: env, resolver: resolver}
}

// Execute validates fields against rules, resolves the authenticated user
// and invokes the handler. Validation failures short-circuit to
// MISSING_OR_INVALID_FIELDS with per-field detail; resolver failures are
// returned verbatim; handler panics and errors become INTERNAL_SERVER_ERROR.
func (g *Gate) Execute(c *fiber.Ctx, fields validate.Fields, rules validate.Rules, handler Handler) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("handler panic", "error", fmt.Sprint(rec), "path", c.Path())
			err = g.env.Error(c, apierr.New(apierr.InternalServerError).WithException(fmt.Sprint(rec)))
		}
	}()

	if fieldErrs := validate.Check(fields, rules); fieldErrs != nil {
		return g.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithExtra(map[string]any{
			"fields": fieldErrs,
		}))
	}

	user, aerr := g.resolver.Current(c)
	if aerr != nil {
		return g.env.Error(c, aerr)
	}

	if err := handler(user, c, g.env); err != nil {
		slog.Error("handler failed", "error", err, "path", c.Path())
		return g.env.Error(c, apierr.New(apierr.InternalServerError).WithException(err.Error()))
	}
	return nil
}
