package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/atlasmarket/internal/apperr"
	"github.com/example/atlasmarket/internal/models"
	"github.com/example/atlasmarket/internal/utils"
)

// CatalogHandler manages categories and products.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// ListCategories returns paginated categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	var total int64
	if err := h.db.Model(&models.Category{}).Count(&total).Error; err != nil {
		return apperr.Internal(err)
	}

	var categories []models.Category
	if err := h.db.Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&categories).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   categories,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetCategory returns a single category.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var category models.Category
	if err := h.db.First(&category, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("category not found")
		}
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": category})
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateCategory adds a category. Admin only.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Name == "" {
		return apperr.Validation("name is required")
	}

	category := models.Category{Name: req.Name, Description: req.Description}
	if err := h.db.Create(&category).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": category})
}

// UpdateCategory updates a category. Admin only.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if len(updates) == 0 {
		return apperr.Validation("no fields to update")
	}

	if err := h.db.Model(&models.Category{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{"message": "category updated"}})
}

// DeleteCategory removes a category. Admin only.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	if err := h.db.Delete(&models.Category{}, id).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{"message": "category deleted"}})
}

// ListProducts returns paginated products with optional category and
// in-stock filters.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	query := h.db.Model(&models.Product{})
	if categoryID := c.QueryInt("category_id"); categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if c.Query("in_stock") == "true" {
		query = query.Where("quantity > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return apperr.Internal(err)
	}

	var products []models.Product
	if err := query.Preload("Category").
		Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(&products).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   products,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetProduct returns a single product.
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.db.Preload("Category").First(&product, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("product not found")
		}
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": product})
}

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Discount    float64 `json:"discount"`
	Quantity    int     `json:"quantity"`
	ImageURL    string  `json:"image_url"`
	CategoryID  *uint   `json:"category_id"`
}

// CreateProduct adds a product. Admin only.
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Name == "" || req.Price < 0 {
		return apperr.Validation("name and a non-negative price are required")
	}

	product := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Discount:    req.Discount,
		Quantity:    req.Quantity,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	}

	if err := h.db.Create(&product).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": product})
}

// UpdateProduct updates a product. Admin only.
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.db.First(&product, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("product not found")
		}
		return apperr.Internal(err)
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Price > 0 {
		updates["price"] = req.Price
	}
	if req.Discount > 0 {
		updates["discount"] = req.Discount
	}
	if req.Quantity > 0 {
		updates["quantity"] = req.Quantity
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}

	if err := h.db.Model(&product).Updates(updates).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{"message": "product updated"}})
}

// DeleteProduct removes a product. Admin only.
func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	if err := h.db.Delete(&models.Product{}, id).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{"message": "product deleted"}})
}
