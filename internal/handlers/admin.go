package handlers

import (
	"errors"

	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/dto"
	"github.com/example/bazaar/internal/models"
	"github.com/example/bazaar/internal/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminHandler serves the back-office catalog endpoints. Routes are
// guarded by JWTProtected and AdminRequired; the customer API never
// reaches these.
type AdminHandler struct {
	db  *gorm.DB
	env *response.Envelope
}

func NewAdminHandler(db *gorm.DB, env *response.Envelope) *AdminHandler {
	return &AdminHandler{db: db, env: env}
}

func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	var req dto.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithException(err.Error()))
	}
	if req.Name == "" || req.RetailPrice <= 0 || req.CurrentPrice <= 0 {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields))
	}

	product := models.Product{
		BrandID:       req.BrandID,
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Description:   req.Description,
		Photo:         req.Photo,
		PurchasePrice: req.PurchasePrice,
		RetailPrice:   req.RetailPrice,
		CurrentPrice:  req.CurrentPrice,
		Attributes:    req.Attributes,
		Status:        statusOrActive(req.Status),
	}
	if err := h.db.Create(&product).Error; err != nil {
		return h.env.Error(c, apierr.New(apierr.InternalServerError).WithException(err.Error()))
	}
	return h.env.Success(c, fiber.Map{"item": product})
}

func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields))
	}

	var product models.Product
	if err := h.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return h.env.Error(c, apierr.New(apierr.ItemNotFound))
		}
		return h.env.Error(c, apierr.New(apierr.InternalServerError).WithException(err.Error()))
	}

	var req dto.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithException(err.Error()))
	}

	updates := map[string]any{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Photo != nil {
		updates["photo"] = *req.Photo
	}
	if req.BrandID != 0 {
		updates["brand_id"] = req.BrandID
	}
	if req.CategoryID != 0 {
		updates["category_id"] = req.CategoryID
	}
	if req.PurchasePrice > 0 {
		updates["purchase_price"] = req.PurchasePrice
	}
	if req.RetailPrice > 0 {
		updates["retail_price"] = req.RetailPrice
	}
	if req.CurrentPrice > 0 {
		updates["current_price"] = req.CurrentPrice
	}
	if len(req.Attributes) > 0 {
		updates["attributes"] = req.Attributes
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}

	if err := h.db.Model(&product).Updates(updates).Error; err != nil {
		return h.env.Error(c, apierr.New(apierr.InternalServerError).WithException(err.Error()))
	}
	return h.env.Success(c, fiber.Map{"item": product})
}

func (h *AdminHandler) CreateBrand(c *fiber.Ctx) error {
	var req dto.BrandRequest
	if err := c.BodyParser(&req); err != nil {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithException(err.Error()))
	}
	if req.Name == "" {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields))
	}

	brand := models.Brand{Name: req.Name, Photo: req.Photo, Status: statusOrActive(req.Status)}
	if err := h.db.Create(&brand).Error; err != nil {
		return h.env.Error(c, apierr.New(apierr.InternalServerError).WithException(err.Error()))
	}
	return h.env.Success(c, fiber.Map{"item": brand})
}

func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithException(err.Error()))
	}
	if req.Name == "" {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields))
	}

	category := models.Category{Name: req.Name, Photo: req.Photo, Status: statusOrActive(req.Status)}
	if err := h.db.Create(&category).Error; err != nil {
		return h.env.Error(c, apierr.New(apierr.InternalServerError).WithException(err.Error()))
	}
	return h.env.Success(c, fiber.Map{"item": category})
}

func (h *AdminHandler) CreatePostcode(c *fiber.Ctx) error {
	var req dto.PostcodeRequest
	if err := c.BodyParser(&req); err != nil {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields).WithException(err.Error()))
	}
	if req.Code == "" || req.City == "" || req.State == "" {
		return h.env.Error(c, apierr.New(apierr.MissingOrInvalidFields))
	}

	postcode := models.Postcode{
		Code:     req.Code,
		City:     req.City,
		District: req.District,
		State:    req.State,
		Country:  req.Country,
		Status:   statusOrActive(req.Status),
	}
	if err := h.db.Create(&postcode).Error; err != nil {
		return h.env.Error(c, apierr.New(apierr.InternalServerError).WithException(err.Error()))
	}
	return h.env.Success(c, fiber.Map{"item": postcode})
}

func statusOrActive(status string) string {
	if status == "" {
		return models.StatusActive
	}
	return status
}
