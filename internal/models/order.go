package models

import "time"

// Order statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatus reports enum membership.
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Cancellable reports whether an order in the given status may be cancelled.
func Cancellable(status string) bool {
	return status == OrderStatusPending || status == OrderStatusProcessing
}

type Order struct {
	BaseModel
	UserID          uint        `gorm:"index" json:"user_id"`
	User            *User       `json:"user,omitempty"`
	Status          string      `gorm:"default:pending" json:"status"`
	TotalAmount     float64     `json:"total_amount"`
	ShippingAddress string      `json:"shipping_address"`
	Phone           string      `json:"phone"`
	PlacedAt        time.Time   `json:"placed_at"`
	Items           []OrderItem `json:"items,omitempty"`
}

// OrderItem is an immutable snapshot of a product line at purchase time.
type OrderItem struct {
	BaseModel
	OrderID     uint    `gorm:"index" json:"order_id"`
	ProductID   uint    `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	Discount    float64 `json:"discount"`
	ImageURL    string  `json:"image_url"`
}

// EffectivePrice is the unit price after the percentage discount.
func (i *OrderItem) EffectivePrice() float64 {
	return i.UnitPrice * (100 - i.Discount) / 100
}

// LineTotal is the effective price times quantity.
func (i *OrderItem) LineTotal() float64 {
	return i.EffectivePrice() * float64(i.Quantity)
}
