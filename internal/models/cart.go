package models

// CartItem is an ephemeral per-user line item. The whole cart is consumed
// when an order is created from it.
type CartItem struct {
	BaseModel
	UserID    uint     `gorm:"index:idx_cart_user_product,unique" json:"user_id"`
	ProductID uint     `gorm:"index:idx_cart_user_product,unique" json:"product_id"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product,omitempty"`
}
