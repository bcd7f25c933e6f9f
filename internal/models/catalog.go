package models

// Category groups products.
type Category struct {
	BaseModel
	Name        string    `gorm:"uniqueIndex" json:"name"`
	Description string    `json:"description"`
	Products    []Product `json:"products,omitempty"`
}

// Product is a live catalog row. Order items snapshot its fields at purchase
// time instead of referencing it, so later edits never rewrite history.
type Product struct {
	BaseModel
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Discount    float64   `json:"discount"`
	Quantity    int       `json:"quantity"`
	ImageURL    string    `json:"image_url"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	Category    *Category `json:"category,omitempty"`
}
