package handlers

import (
	"errors"
	"fmt"

	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/gate"
	"github.com/example/bazaar/internal/models"
	"github.com/example/bazaar/internal/response"
	"github.com/example/bazaar/internal/validate"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ListType names the per-user product lists. The name appears verbatim in
// client-facing messages.
type ListType string

const (
	ListHandcart  ListType = "Handcart"
	ListFavorites ListType = "Favorites"
	ListOrders    ListType = "Orders"
)

// ListsHandler serves the per-user lists: handcart, favorites and orders.
// Handcart and favorites are mutable and keyed by product id; orders are
// append-only via Place and otherwise read-only.
type ListsHandler struct {
	db   *gorm.DB
	gate *gate.Gate
}

func NewListsHandler(db *gorm.DB, g *gate.Gate) *ListsHandler {
	return &ListsHandler{db: db, gate: g}
}

// List pages through the user's list with a price summary over the whole
// list, not just the page.
func (h *ListsHandler) List(typ ListType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.gate.Execute(c, validate.FromQuery(c), validate.Rules{
			"order": "in:asc,dsc",
			"page":  "integer|min:1",
			"limit": "integer|min:1",
		}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
			return h.render(c, env, user, typ, "")
		})
	}
}

// Search matches list entries by product name. The summary covers every
// matching entry.
func (h *ListsHandler) Search(typ ListType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.gate.Execute(c, validate.FromQuery(c), validate.Rules{
			"query": "required|string|min:1",
			"order": "in:asc,dsc",
			"page":  "integer|min:1",
			"limit": "integer|min:1",
		}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
			return h.render(c, env, user, typ, c.Query("query"))
		})
	}
}

func (h *ListsHandler) render(c *fiber.Ctx, env *response.Envelope, user *models.User, typ ListType, search string) error {
	dir := orderDir(c.Query("order"))

	var (
		items any
		page  *response.Page
		err   error
	)
	if typ == ListOrders {
		var orders []models.Order
		page, err = env.Paginate(c, h.ordersQuery(user, search).
			Preload("Details.Product.Brand").
			Order("created_at "+dir), &orders)
		items = orders
	} else {
		var entries []models.HandcartItem
		if typ == ListFavorites {
			var favorites []models.FavoriteItem
			page, err = env.Paginate(c, h.itemsQuery(&models.FavoriteItem{}, user, search).
				Preload("Product.Brand").
				Order("created_at "+dir), &favorites)
			items = favorites
		} else {
			page, err = env.Paginate(c, h.itemsQuery(&models.HandcartItem{}, user, search).
				Preload("Product.Brand").
				Order("created_at "+dir), &entries)
			items = entries
		}
	}
	if err != nil {
		return err
	}

	details, err := h.priceDetails(user, typ, search)
	if err != nil {
		return err
	}

	body := fiber.Map{
		"user":    env.User(c, user, nil),
		"items":   items,
		"details": details,
	}
	if page.NextPage != "" {
		body["next_page"] = page.NextPage
	}
	return env.Success(c, body)
}

// Add puts a product on the handcart or favorites, merging quantities
// when it is already there.
func (h *ListsHandler) Add(typ ListType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fields := validate.FromBody(c)
		return h.gate.Execute(c, fields, validate.Rules{
			"id":       "required|integer",
			"quantity": "integer|min:1",
		}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
			productID := uint(fields.Int64("id", 0))
			var count int64
			if err := h.db.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return env.Error(c, apierr.New(apierr.ItemNotFound))
			}

			quantity := fields.Int("quantity", 1)

			var err error
			if typ == ListFavorites {
				var item models.FavoriteItem
				err = h.upsert(&item, user, productID, quantity, func() error {
					item.Quantity += quantity
					return h.db.Save(&item).Error
				}, func() error {
					return h.db.Create(&models.FavoriteItem{UserID: user.ID, ProductID: productID, Quantity: quantity}).Error
				})
			} else {
				var item models.HandcartItem
				err = h.upsert(&item, user, productID, quantity, func() error {
					item.Quantity += quantity
					return h.db.Save(&item).Error
				}, func() error {
					return h.db.Create(&models.HandcartItem{UserID: user.ID, ProductID: productID, Quantity: quantity}).Error
				})
			}
			if err != nil {
				return err
			}

			return env.Success(c, fiber.Map{
				"user":    env.User(c, user, nil),
				"message": fmt.Sprintf("Item added to your %s successfully.", typ),
			})
		})
	}
}

func (h *ListsHandler) upsert(item any, user *models.User, productID uint, quantity int, update, create func() error) error {
	err := h.db.Where("user_id = ? AND product_id = ?", user.ID, productID).First(item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return create()
		}
		return err
	}
	return update()
}

// UpdateQuantity sets the quantity of a list entry; zero removes it.
func (h *ListsHandler) UpdateQuantity(typ ListType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fields := validate.FromBody(c)
		return h.gate.Execute(c, fields, validate.Rules{
			"id":       "required|integer",
			"quantity": "required|integer|min:0",
		}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
			productID := uint(fields.Int64("id", 0))
			quantity := fields.Int("quantity", 0)

			if quantity == 0 {
				return h.remove(c, env, user, typ, productID)
			}

			result := h.db.Model(h.entryModel(typ)).
				Where("user_id = ? AND product_id = ?", user.ID, productID).
				Update("quantity", quantity)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return env.Error(c, apierr.New(apierr.ItemNotFound))
			}

			return env.Success(c, fiber.Map{
				"user":    env.User(c, user, nil),
				"message": fmt.Sprintf("Item quantity updated in your %s successfully.", typ),
			})
		})
	}
}

// Remove deletes a product's entry from the list.
func (h *ListsHandler) Remove(typ ListType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fields := validate.FromBody(c)
		return h.gate.Execute(c, fields, validate.Rules{
			"id": "required|integer",
		}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
			return h.remove(c, env, user, typ, uint(fields.Int64("id", 0)))
		})
	}
}

func (h *ListsHandler) remove(c *fiber.Ctx, env *response.Envelope, user *models.User, typ ListType, productID uint) error {
	result := h.db.Where("user_id = ? AND product_id = ?", user.ID, productID).Delete(h.entryModel(typ))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return env.Error(c, apierr.New(apierr.ItemNotFound))
	}
	return env.Success(c, fiber.Map{
		"user":    env.User(c, user, nil),
		"message": fmt.Sprintf("Item removed from your %s successfully.", typ),
	})
}

// Place turns the handcart into an order, freezing each line's retail and
// deal price, and clears the cart in the same transaction.
func (h *ListsHandler) Place(c *fiber.Ctx) error {
	return h.gate.Execute(c, validate.FromBody(c), validate.Rules{}, func(user *models.User, c *fiber.Ctx, env *response.Envelope) error {
		var entries []models.HandcartItem
		err := h.db.Preload("Product").Where("user_id = ?", user.ID).Find(&entries).Error
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return env.Error(c, apierr.New(apierr.ItemNotFound))
		}

		order := models.Order{UserID: user.ID, Status: models.StatusActive}
		err = h.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			for _, entry := range entries {
				detail := models.OrderDetail{
					OrderID:     order.ID,
					ProductID:   entry.ProductID,
					Quantity:    entry.Quantity,
					RetailPrice: entry.Product.RetailPrice,
					DealPrice:   entry.Product.CurrentPrice,
				}
				if err := tx.Create(&detail).Error; err != nil {
					return err
				}
			}
			return tx.Where("user_id = ?", user.ID).Delete(&models.HandcartItem{}).Error
		})
		if err != nil {
			return err
		}

		var placed models.Order
		if err := h.db.Preload("Details.Product.Brand").First(&placed, order.ID).Error; err != nil {
			return err
		}
		return env.Success(c, fiber.Map{
			"user":    env.User(c, user, nil),
			"item":    placed,
			"message": "Order placed successfully.",
		})
	})
}

func (h *ListsHandler) entryModel(typ ListType) any {
	if typ == ListFavorites {
		return &models.FavoriteItem{}
	}
	return &models.HandcartItem{}
}

func (h *ListsHandler) itemsQuery(model any, user *models.User, search string) *gorm.DB {
	query := h.db.Model(model).Where("user_id = ?", user.ID)
	if search != "" {
		query = query.Where("product_id IN (?)",
			h.db.Model(&models.Product{}).Select("id").Where("name ILIKE ?", "%"+search+"%"))
	}
	return query
}

func (h *ListsHandler) ordersQuery(user *models.User, search string) *gorm.DB {
	query := h.db.Model(&models.Order{}).Where("user_id = ?", user.ID)
	if search != "" {
		query = query.Where("id IN (?)",
			h.db.Model(&models.OrderDetail{}).Select("order_details.order_id").
				Joins("JOIN products ON products.id = order_details.product_id").
				Where("products.name ILIKE ?", "%"+search+"%"))
	}
	return query
}

// priceDetails aggregates quantity, retail and current totals over the
// whole (optionally search-filtered) list. Orders use their frozen line
// prices, the live lists their product's catalog prices.
func (h *ListsHandler) priceDetails(user *models.User, typ ListType, search string) (fiber.Map, error) {
	var (
		totalItems   int
		retailPrice  float64
		currentPrice float64
	)

	if typ == ListOrders {
		var orders []models.Order
		if err := h.ordersQuery(user, search).Preload("Details").Find(&orders).Error; err != nil {
			return nil, err
		}
		for _, order := range orders {
			for _, detail := range order.Details {
				totalItems += detail.Quantity
				retailPrice += detail.RetailPrice * float64(detail.Quantity)
				currentPrice += detail.DealPrice * float64(detail.Quantity)
			}
		}
	} else if typ == ListFavorites {
		var entries []models.FavoriteItem
		if err := h.itemsQuery(&models.FavoriteItem{}, user, search).Preload("Product").Find(&entries).Error; err != nil {
			return nil, err
		}
		for _, entry := range entries {
			totalItems += entry.Quantity
			if entry.Product != nil {
				retailPrice += entry.Product.RetailPrice * float64(entry.Quantity)
				currentPrice += entry.Product.CurrentPrice * float64(entry.Quantity)
			}
		}
	} else {
		var entries []models.HandcartItem
		if err := h.itemsQuery(&models.HandcartItem{}, user, search).Preload("Product").Find(&entries).Error; err != nil {
			return nil, err
		}
		for _, entry := range entries {
			totalItems += entry.Quantity
			if entry.Product != nil {
				retailPrice += entry.Product.RetailPrice * float64(entry.Quantity)
				currentPrice += entry.Product.CurrentPrice * float64(entry.Quantity)
			}
		}
	}

	if totalItems == 0 {
		if search != "" {
			return fiber.Map{"message": fmt.Sprintf("No products found in your %s for this query.", typ)}, nil
		}
		return fiber.Map{"message": fmt.Sprintf("There are currently no items in your %s.", typ)}, nil
	}

	details := fiber.Map{
		"quantity":      totalItems,
		"retail_price":  retailPrice,
		"current_price": currentPrice,
	}

	if search != "" {
		details["message"] = fmt.Sprintf("Total %d products found in your %s for this query.", totalItems, typ)
		return details, nil
	}

	message := fmt.Sprintf("Total %d items worth ₹%s in your %s", totalItems, amount(currentPrice), typ)
	if savings := retailPrice - currentPrice; savings > 0 {
		if typ == ListOrders {
			message += fmt.Sprintf(", you have saved ₹%s per item so far.", amount(savings))
		} else {
			message += fmt.Sprintf(", you will save ₹%s if you order now.", amount(savings))
		}
	} else {
		message += "."
	}
	details["message"] = message
	return details, nil
}
