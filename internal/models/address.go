package models

type UserAddress struct {
	BaseModel
	UserID      uint   `gorm:"index" json:"user_id"`
	Label       string `json:"label"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
	IsDefault   bool   `json:"is_default"`
}
