package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated customer account.
type User struct {
	BaseModel
	Email        string   `gorm:"uniqueIndex" json:"email"`
	PasswordHash string   `json:"-"`
	IsAdmin      bool     `json:"is_admin"`
	Profile      *Profile `json:"profile,omitempty"`
	Orders       []Order  `json:"orders,omitempty"`
}

// PasswordResetToken tracks an emailed reset code.
type PasswordResetToken struct {
	BaseModel
	UserID    uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	Token     string     `gorm:"uniqueIndex" json:"-"`
	CodeHash  string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	Verified  bool       `json:"verified"`
	UsedAt    *time.Time `json:"used_at"`
}
