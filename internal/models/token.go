package models

import "time"

// RefreshToken is a long-lived opaque credential tracked server-side. Tokens
// are revoked on logout, rotation and password reset, never deleted.
type RefreshToken struct {
	BaseModel
	Token     string    `gorm:"uniqueIndex;size:128" json:"token"`
	UserID    uint      `gorm:"index" json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
}

// Usable reports whether the token may still mint access tokens.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
