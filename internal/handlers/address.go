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

// AddressHandler serves the delivery address book. All operations are
// scoped to the authenticated user; at most one address is the default.
type AddressHandler struct {
	db   *gorm.DB
	gate *gate.Gate
}

func NewAddressHandler(db *gorm.DB, g *gate.Gate) *AddressHandler {
	return &AddressHandler{db: db, gate: g}
}

// Postcode looks a postcode up by its code for the address form.
func (h *AddressHandler) Postcode(c *fiber.Ctx) error {
	return h.gate.Execute(c, validate.FromQuery(c), validate.Rules{
		"postcode": "required|numeric",
	}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
		var postcode models.Postcode
		err := h.db.Where("code = ? AND status = ?", c.Query("postcode"), models.StatusActive).First(&postcode).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return env.Error(c, apierr.New(apierr.ItemNotFound))
			}
			return err
		}
		return env.Success(c, fiber.Map{
			"user": env.User(c, user, nil),
			"item": postcode,
		})
	})
}

// List pages through the user's addresses.
func (h *AddressHandler) List(c *fiber.Ctx) error {
	return h.gate.Execute(c, validate.FromQuery(c), validate.Rules{
		"order": "in:asc,dsc",
		"page":  "integer|min:1",
		"limit": "integer|min:1",
	}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
		query := h.db.Model(&models.Address{}).
			Where("user_id = ?", user.ID).
			Preload("Postcode").
			Order("name " + orderDir(c.Query("order")))

		var addresses []models.Address
		page, err := env.Paginate(c, query, &addresses)
		if err != nil {
			return err
		}
		return env.Success(c, fiber.Map{
			"user":      env.User(c, user, nil),
			"items":     addresses,
			"next_page": page.NextPage,
		})
	})
}

// Search matches addresses by name, line or phone.
func (h *AddressHandler) Search(c *fiber.Ctx) error {
	return h.gate.Execute(c, validate.FromQuery(c), validate.Rules{
		"query": "required|string",
		"order": "in:asc,dsc",
		"page":  "integer|min:1",
		"limit": "integer|min:1",
	}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
		like := "%" + c.Query("query") + "%"
		query := h.db.Model(&models.Address{}).
			Where("user_id = ?", user.ID).
			Where(h.db.Where("name ILIKE ?", like).
				Or("line_1 ILIKE ?", like).
				Or("line_2 ILIKE ?", like).
				Or("phone ILIKE ?", like)).
			Preload("Postcode").
			Order("name " + orderDir(c.Query("order")))

		var addresses []models.Address
		page, err := env.Paginate(c, query, &addresses)
		if err != nil {
			return err
		}
		return env.Success(c, fiber.Map{
			"user":      env.User(c, user, nil),
			"items":     addresses,
			"next_page": page.NextPage,
		})
	})
}

// Add creates an address. The user's first address becomes the default.
func (h *AddressHandler) Add(c *fiber.Ctx) error {
	fields := validate.FromBody(c)
	return h.gate.Execute(c, fields, validate.Rules{
		"postcode_id": "required|integer",
		"name":        "required|string",
		"care_of":     "required|string",
		"phone":       "required|numeric",
		"line_1":      "required|string",
		"line_2":      "string",
		"type":        "required|in:HOME,OFFICE,OTHER",
	}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
		var postcode models.Postcode
		err := h.db.First(&postcode, fields.Int64("postcode_id", 0)).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return env.Error(c, apierr.New(apierr.ItemNotFound))
			}
			return err
		}

		var existing int64
		if err := h.db.Model(&models.Address{}).Where("user_id = ?", user.ID).Count(&existing).Error; err != nil {
			return err
		}

		address := models.Address{
			UserID:     user.ID,
			PostcodeID: postcode.ID,
			Name:       fields.Str("name"),
			CareOf:     fields.Str("care_of"),
			Phone:      fields.Str("phone"),
			Line1:      fields.Str("line_1"),
			Line2:      fields.Str("line_2"),
			Type:       fields.Str("type"),
			Default:    existing == 0,
		}
		if err := h.db.Create(&address).Error; err != nil {
			return err
		}
		address.Postcode = &postcode

		return env.Success(c, fiber.Map{
			"user":    env.User(c, user, nil),
			"item":    address,
			"message": "Address was added successfully.",
		})
	})
}

// Show loads one address with its postcode.
func (h *AddressHandler) Show(c *fiber.Ctx) error {
	fields := validate.FromQuery(c)
	return h.gate.Execute(c, fields, validate.Rules{
		"id": "required|integer",
	}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
		address, err := h.find(user, fields.Int64("id", 0))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return env.Error(c, apierr.New(apierr.ItemNotFound))
			}
			return err
		}
		return env.Success(c, fiber.Map{
			"user": env.User(c, user, nil),
			"item": address,
		})
	})
}

// Update edits an address. Promoting one to default demotes the others in
// the same transaction, so the exclusivity holds under concurrent calls.
func (h *AddressHandler) Update(c *fiber.Ctx) error {
	fields := validate.FromBody(c)
	return h.gate.Execute(c, fields, validate.Rules{
		"id":          "required|integer",
		"postcode_id": "integer",
		"name":        "string",
		"care_of":     "string",
		"phone":       "numeric",
		"line_1":      "string",
		"line_2":      "string",
		"type":        "in:HOME,OFFICE,OTHER",
		"default":     "boolean",
	}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
		address, err := h.find(user, fields.Int64("id", 0))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return env.Error(c, apierr.New(apierr.ItemNotFound))
			}
			return err
		}

		if fields.Has("postcode_id") {
			var count int64
			if err := h.db.Model(&models.Postcode{}).Where("id = ?", fields.Int64("postcode_id", 0)).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return env.Error(c, apierr.New(apierr.ItemNotFound))
			}
		}

		updates := map[string]any{}
		for _, col := range []string{"name", "care_of", "phone", "line_1", "line_2", "type"} {
			if fields.Has(col) {
				updates[col] = fields.Str(col)
			}
		}
		if fields.Has("postcode_id") {
			updates["postcode_id"] = fields.Int64("postcode_id", 0)
		}
		if fields.Has("default") {
			updates["default"] = fields.Bool("default", false)
		}

		err = h.db.Transaction(func(tx *gorm.DB) error {
			if fields.Bool("default", false) {
				err := tx.Model(&models.Address{}).
					Where("user_id = ? AND id <> ?", user.ID, address.ID).
					Update("default", false).Error
				if err != nil {
					return err
				}
			}
			return tx.Model(address).Updates(updates).Error
		})
		if err != nil {
			return err
		}

		refreshed, err := h.find(user, int64(address.ID))
		if err != nil {
			return err
		}
		return env.Success(c, fiber.Map{
			"user":    env.User(c, user, nil),
			"item":    refreshed,
			"message": "Address was updated successfully.",
		})
	})
}

// Delete removes an address.
func (h *AddressHandler) Delete(c *fiber.Ctx) error {
	fields := validate.FromBody(c)
	return h.gate.Execute(c, fields, validate.Rules{
		"id": "required|integer",
	}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
		address, err := h.find(user, fields.Int64("id", 0))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return env.Error(c, apierr.New(apierr.ItemNotFound))
			}
			return err
		}
		if err := h.db.Delete(address).Error; err != nil {
			return err
		}
		return env.Success(c, fiber.Map{
			"user":    env.User(c, user, nil),
			"message": "Address was deleted successfully.",
		})
	})
}

func (h *AddressHandler) find(user *models.User, id int64) (*models.Address, error) {
	var address models.Address
	err := h.db.Preload("Postcode").
		Where("user_id = ?", user.ID).
		First(&address, id).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// orderDir maps the client's asc/dsc parameter onto SQL order directions.
func orderDir(order string) string {
	if order == "dsc" {
		return "desc"
	}
	return "asc"
}
