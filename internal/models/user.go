package models

import "time"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a customer or admin account. PasswordHash is nil for
// accounts created through OTP verification; Active is false once the account
// is locked.
type User struct {
	BaseModel
	UID                    string        `gorm:"uniqueIndex;size:64" json:"uid"`
	FullName               string        `json:"full_name"`
	Email                  string        `gorm:"uniqueIndex" json:"email"`
	Phone                  string        `gorm:"uniqueIndex" json:"phone"`
	PasswordHash           *string       `json:"-"`
	Role                   string        `gorm:"default:user" json:"role"`
	Active                 bool          `gorm:"default:true" json:"active"`
	FailedLoginAttempts    int           `gorm:"default:0" json:"-"`
	LastLoginAt            *time.Time    `json:"last_login_at"`
	PasswordResetToken     *string       `gorm:"index" json:"-"`
	PasswordResetExpiresAt *time.Time    `json:"-"`
	Addresses              []UserAddress `json:"addresses,omitempty"`
	Orders                 []Order       `json:"orders,omitempty"`
}

// PublicView returns the user fields safe to echo in API responses.
func (u *User) PublicView() map[string]interface{} {
	return map[string]interface{}{
		"id":            u.ID,
		"uid":           u.UID,
		"full_name":     u.FullName,
		"email":         u.Email,
		"phone":         u.Phone,
		"role":          u.Role,
		"active":        u.Active,
		"last_login_at": u.LastLoginAt,
		"created_at":    u.CreatedAt,
	}
}
