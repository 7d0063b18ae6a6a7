package handlers

import (
	"errors"

	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/gate"
	"github.com/example/bazaar/internal/models"
	"github.com/example/bazaar/internal/response"
	"github.com/example/bazaar/internal/validate"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ProductHandler serves catalog search and product detail.
type ProductHandler struct {
	db   *gorm.DB
	gate *gate.Gate
}

func NewProductHandler(db *gorm.DB, g *gate.Gate) *ProductHandler {
	return &ProductHandler{db: db, gate: g}
}

// Search matches active products by name, description, brand or category
// name, with optional brand/category/price filters. The page is returned
// together with the distinct brands and categories of the full result
// set, so clients can render filter chips.
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	fields := validate.FromQuery(c)
	return h.gate.Execute(c, fields, validate.Rules{
		"query":       "required|string",
		"brand_id":    "integer",
		"category_id": "integer",
		"min_price":   "numeric|min:0",
		"max_price":   "numeric|min:0",
		"order":       "in:asc,dsc",
		"page":        "integer|min:1",
		"limit":       "integer|min:1",
	}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
		if fields.Has("brand_id") {
			var count int64
			if err := h.db.Model(&models.Brand{}).Where("id = ?", fields.Int64("brand_id", 0)).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return env.Error(c, apierr.New(apierr.ItemNotFound))
			}
		}
		if fields.Has("category_id") {
			var count int64
			if err := h.db.Model(&models.Category{}).Where("id = ?", fields.Int64("category_id", 0)).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return env.Error(c, apierr.New(apierr.ItemNotFound))
			}
		}

		query := h.filter(fields).
			Preload("Brand").
			Preload("Category").
			Order("products.retail_price " + orderDir(c.Query("order")))

		var products []models.Product
		page, err := env.Paginate(c, query, &products)
		if err != nil {
			return err
		}

		brands, categories, err := h.facets(fields)
		if err != nil {
			return err
		}

		return env.Success(c, fiber.Map{
			"user":       env.User(c, user, nil),
			"items":      products,
			"brands":     brands,
			"categories": categories,
			"next_page":  page.NextPage,
		})
	})
}

// Show loads one active product with its brand and category.
func (h *ProductHandler) Show(c *fiber.Ctx) error {
	fields := validate.FromQuery(c)
	return h.gate.Execute(c, fields, validate.Rules{
		"id": "required|integer",
	}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
		var product models.Product
		err := h.db.Preload("Brand").Preload("Category").
			Where("status = ?", models.StatusActive).
			First(&product, fields.Int64("id", 0)).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return env.Error(c, apierr.New(apierr.ItemNotFound))
			}
			return err
		}
		return env.Success(c, fiber.Map{
			"user": env.User(c, user, nil),
			"item": product,
		})
	})
}

// filter builds the product query for the search parameters. Price bounds
// apply to the current price, the one the customer would pay.
func (h *ProductHandler) filter(fields validate.Fields) *gorm.DB {
	like := "%" + fields.Str("query") + "%"
	query := h.db.Model(&models.Product{}).
		Joins("LEFT JOIN brands ON brands.id = products.brand_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Where("products.status = ?", models.StatusActive).
		Where(h.db.Where("products.name ILIKE ?", like).
			Or("products.description ILIKE ?", like).
			Or("brands.name ILIKE ?", like).
			Or("categories.name ILIKE ?", like))

	if fields.Has("brand_id") {
		query = query.Where("products.brand_id = ?", fields.Int64("brand_id", 0))
	}
	if fields.Has("category_id") {
		query = query.Where("products.category_id = ?", fields.Int64("category_id", 0))
	}
	if fields.Has("min_price") {
		query = query.Where("products.current_price >= ?", fields.Float("min_price", 0))
	}
	if fields.Has("max_price") {
		query = query.Where("products.current_price <= ?", fields.Float("max_price", 0))
	}
	return query
}

// facets loads the distinct brands and categories across every product the
// filter matches, not just the current page.
func (h *ProductHandler) facets(fields validate.Fields) ([]models.Brand, []models.Category, error) {
	var brands []models.Brand
	err := h.db.
		Where("id IN (?)", h.filter(fields).Select("products.brand_id")).
		Order("name asc").
		Find(&brands).Error
	if err != nil {
		return nil, nil, err
	}

	var categories []models.Category
	err = h.db.
		Where("id IN (?)", h.filter(fields).Select("products.category_id")).
		Order("name asc").
		Find(&categories).Error
	if err != nil {
		return nil, nil, err
	}
	return brands, categories, nil
}
