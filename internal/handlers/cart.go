package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/atlasmarket/internal/apperr"
	"github.com/example/atlasmarket/internal/middleware"
	"github.com/example/atlasmarket/internal/models"
)

// CartHandler manages the caller's cart.
type CartHandler struct {
	db *gorm.DB
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(db *gorm.DB) *CartHandler {
	return &CartHandler{db: db}
}

// ListItems returns the caller's cart.
func (h *CartHandler) ListItems(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperr.Auth("unauthorized")
	}

	var items []models.CartItem
	if err := h.db.Preload("Product").Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": items})
}

type addCartItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// AddItem puts a product in the cart, merging quantities when it is already
// there.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperr.Auth("unauthorized")
	}

	var req addCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.ProductID == 0 || req.Quantity <= 0 {
		return apperr.Validation("product_id and a positive quantity are required")
	}

	var product models.Product
	if err := h.db.First(&product, req.ProductID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("product not found")
		}
		return apperr.Internal(err)
	}

	var item models.CartItem
	err := h.db.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&item).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		item = models.CartItem{UserID: userID, ProductID: req.ProductID, Quantity: req.Quantity}
		if err := h.db.Create(&item).Error; err != nil {
			return apperr.Internal(err)
		}
	case err != nil:
		return apperr.Internal(err)
	default:
		item.Quantity += req.Quantity
		if err := h.db.Model(&item).Update("quantity", item.Quantity).Error; err != nil {
			return apperr.Internal(err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": item})
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets the quantity of a cart line.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperr.Auth("unauthorized")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Quantity <= 0 {
		return apperr.Validation("quantity must be positive")
	}

	result := h.db.Model(&models.CartItem{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("quantity", req.Quantity)
	if result.Error != nil {
		return apperr.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("cart item not found")
	}

	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{"message": "cart updated"}})
}

// RemoveItem deletes one line from the cart.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperr.Auth("unauthorized")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	if err := h.db.Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.CartItem{}).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{"message": "item removed"}})
}

// ClearCart deletes every line in the caller's cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperr.Auth("unauthorized")
	}

	if err := h.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{"message": "cart cleared"}})
}
