package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/example/atlasmarket/internal/apperr"
	"github.com/example/atlasmarket/internal/middleware"
	"github.com/example/atlasmarket/internal/models"
	"github.com/example/atlasmarket/internal/services"
	"github.com/example/atlasmarket/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	Items           []services.OrderItemInput `json:"items"`
	TotalAmount     float64                   `json:"total_amount"`
	ShippingAddress string                    `json:"shipping_address"`
	Phone           string                    `json:"phone"`
}

// CreateOrder places an order from the supplied item snapshots and clears
// the caller's cart.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperr.Auth("unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	order, err := h.orders.Create(userID, req.Items, req.TotalAmount, req.ShippingAddress, req.Phone)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success", "data": order})
}

// ListOrders returns the caller's orders.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return apperr.Auth("unauthorized")
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.ListForUser(userID, c.Query("status"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// ListAllOrders returns every order. Admin only.
func (h *OrderHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.ListAll(c.Query("status"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns a single order. Ownership is enforced by middleware.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.orders.Get(id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"status": "success", "data": order})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus sets an order's status. Admin only.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	if req.Status == models.OrderStatusCancelled {
		return apperr.InvalidState("use the cancel endpoint to cancel an order")
	}

	order, err := h.orders.UpdateStatus(id, req.Status)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"status": "success", "data": order})
}

// CancelOrder cancels a pending or processing order. Ownership is enforced
// by middleware.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.orders.Cancel(id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"status": "success", "data": order})
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperr.Validation("invalid id")
	}
	return uint(id), nil
}
