package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/atlasmarket/internal/apperr"
	"github.com/example/atlasmarket/internal/middleware"
	"github.com/example/atlasmarket/internal/models"
)

// ProfileHandler manages user profile and address endpoints.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// GetProfile returns the authenticated user's profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperr.Auth("unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": user.PublicView()})
}

type updateProfileRequest struct {
	FullName string `json:"full_name"`
}

// UpdateProfile updates user profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperr.Auth("unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	if req.FullName == "" {
		return apperr.Validation("no fields to update")
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"full_name":  req.FullName,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{"message": "profile updated"}})
}

// ListAddresses returns the caller's saved addresses.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperr.Auth("unauthorized")
	}

	var addresses []models.UserAddress
	if err := h.db.Where("user_id = ?", userID).Find(&addresses).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": addresses})
}

type createAddressRequest struct {
	Label       string `json:"label"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
	IsDefault   bool   `json:"is_default"`
}

// CreateAddress saves an address for the caller.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperr.Auth("unauthorized")
	}

	var req createAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.AddressLine == "" || req.City == "" {
		return apperr.Validation("address_line and city are required")
	}

	address := models.UserAddress{
		UserID:      userID,
		Label:       req.Label,
		AddressLine: req.AddressLine,
		City:        req.City,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
		IsDefault:   req.IsDefault,
	}

	if err := h.db.Create(&address).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": address})
}

type updateAddressRequest struct {
	Label       *string `json:"label"`
	AddressLine *string `json:"address_line"`
	City        *string `json:"city"`
	PostalCode  *string `json:"postal_code"`
	Country     *string `json:"country"`
	IsDefault   *bool   `json:"is_default"`
}

// UpdateAddress updates a saved address. Ownership is enforced by middleware.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req updateAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if req.AddressLine != nil {
		updates["address_line"] = *req.AddressLine
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.PostalCode != nil {
		updates["postal_code"] = *req.PostalCode
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.IsDefault != nil {
		updates["is_default"] = *req.IsDefault
	}

	if len(updates) == 0 {
		return apperr.Validation("no fields to update")
	}

	if err := h.db.Model(&models.UserAddress{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{"message": "address updated"}})
}

// DeleteAddress removes a saved address. Ownership is enforced by middleware.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	if err := h.db.Delete(&models.UserAddress{}, id).Error; err != nil {
		return apperr.Internal(err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": fiber.Map{"message": "address deleted"}})
}
