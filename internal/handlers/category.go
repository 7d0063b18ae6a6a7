package handlers

import (
	"github.com/example/bazaar/internal/gate"
	"github.com/example/bazaar/internal/models"
	"github.com/example/bazaar/internal/response"
	"github.com/example/bazaar/internal/validate"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CategoryHandler serves the category listing for storefront navigation.
type CategoryHandler struct {
	db   *gorm.DB
	gate *gate.Gate
}

func NewCategoryHandler(db *gorm.DB, g *gate.Gate) *CategoryHandler {
	return &CategoryHandler{db: db, gate: g}
}

// List pages through active categories ordered by name.
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	return h.gate.Execute(c, validate.FromQuery(c), validate.Rules{
		"order": "in:asc,dsc",
		"page":  "integer|min:1",
		"limit": "integer|min:1",
	}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
		query := h.db.Model(&models.Category{}).
			Where("status = ?", models.StatusActive).
			Order("name " + orderDir(c.Query("order")))

		var categories []models.Category
		page, err := env.Paginate(c, query, &categories)
		if err != nil {
			return err
		}
		return env.Success(c, fiber.Map{
			"user":      env.User(c, user, nil),
			"items":     categories,
			"next_page": page.NextPage,
		})
	})
}
