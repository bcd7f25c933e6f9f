package services

import (
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/example/atlasmarket/internal/apperr"
	"github.com/example/atlasmarket/internal/models"
)

// OrderService coordinates the order-creation transaction and the order
// status machine.
type OrderService struct {
	db *gorm.DB
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// OrderItemInput is one product line supplied by the caller. The fields are
// snapshotted verbatim onto the order.
type OrderItemInput struct {
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	Discount    float64 `json:"discount"`
	ImageURL    string  `json:"image_url"`
}

// Create atomically inserts the order and its item snapshots and clears the
// user's cart. On any failure nothing is persisted. The order total is
// recomputed from the items; a non-zero client total that disagrees is
// rejected.
//
// Stock is neither re-validated nor decremented here, so orders can snapshot
// products that are out of stock at the moment of purchase.
func (s *OrderService) Create(userID uint, items []OrderItemInput, totalAmount float64, shippingAddress, phone string) (*models.Order, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}
	if shippingAddress == "" || phone == "" {
		return nil, apperr.Validation("shipping_address and phone are required")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apperr.Validation("item quantity must be positive")
		}
		if item.UnitPrice < 0 || item.Discount < 0 || item.Discount > 100 {
			return nil, apperr.Validation("invalid item price or discount")
		}
	}

	order := models.Order{
		UserID:          userID,
		Status:          models.OrderStatusPending,
		ShippingAddress: shippingAddress,
		Phone:           phone,
		PlacedAt:        time.Now(),
	}

	var computed float64
	for _, item := range items {
		snapshot := models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Discount:    item.Discount,
			ImageURL:    item.ImageURL,
		}
		computed += snapshot.LineTotal()
		order.Items = append(order.Items, snapshot)
	}

	if totalAmount != 0 && math.Abs(totalAmount-computed) > 0.01 {
		return nil, apperr.Validation("total amount does not match order items")
	}
	order.TotalAmount = computed

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return apperr.Internal(err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(order.ID)
}

// Get returns the persisted order with its items.
func (s *OrderService) Get(orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("Items").First(&order, orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("order not found")
		}
		return nil, apperr.Internal(err)
	}
	return &order, nil
}

// ListForUser returns the user's orders, newest first.
func (s *OrderService) ListForUser(userID uint, status string, limit, offset int) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Where("user_id = ?", userID)
	return s.list(query, status, limit, offset)
}

// ListAll returns every order, newest first. Admin only at the boundary.
func (s *OrderService) ListAll(status string, limit, offset int) ([]models.Order, int64, error) {
	return s.list(s.db.Model(&models.Order{}), status, limit, offset)
}

func (s *OrderService) list(query *gorm.DB, status string, limit, offset int) ([]models.Order, int64, error) {
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(limit).Offset(offset).
		Find(&orders).Error; err != nil {
		return nil, 0, apperr.Internal(err)
	}

	return orders, total, nil
}

// UpdateStatus sets an order's status. The only check is enum membership;
// the caller is trusted to be an admin.
func (s *OrderService) UpdateStatus(orderID uint, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, apperr.InvalidState("unknown order status")
	}

	order, err := s.Get(orderID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(order).Update("status", status).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	order.Status = status
	return order, nil
}

// Cancel moves an order to cancelled. Legal only from pending or processing.
func (s *OrderService) Cancel(orderID uint) (*models.Order, error) {
	order, err := s.Get(orderID)
	if err != nil {
		return nil, err
	}

	if !models.Cancellable(order.Status) {
		return nil, apperr.InvalidState("order can no longer be cancelled")
	}

	if err := s.db.Model(order).Update("status", models.OrderStatusCancelled).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	order.Status = models.OrderStatusCancelled
	return order, nil
}
