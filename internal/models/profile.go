package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the user-scoped loyalty profile. Points move only through
// LoyaltyTransaction rows; customers may edit FullName and Phone.
type Profile struct {
	BaseModel
	UserID        uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone"`
	AvatarURL     string    `json:"avatar_url"`
	LoyaltyPoints int       `gorm:"not null;default:0" json:"loyalty_points"`
	LoyaltyTier   string    `gorm:"not null;default:bronze" json:"loyalty_tier"`
}

// Loyalty transaction types.
const (
	TransactionEarned     = "earned"
	TransactionRedeemed   = "redeemed"
	TransactionExpired    = "expired"
	TransactionAdjustment = "adjustment"
)

// LoyaltyTransaction is an append-only points ledger entry.
type LoyaltyTransaction struct {
	BaseModel
	UserID      uuid.UUID  `gorm:"type:uuid;index:idx_loyalty_user_created,priority:1" json:"user_id"`
	Type        string     `gorm:"not null" json:"type"`
	Points      int        `json:"points"`
	Description string     `json:"description"`
	OrderID     *uuid.UUID `gorm:"type:uuid" json:"order_id,omitempty"`
	OccurredAt  time.Time  `gorm:"index:idx_loyalty_user_created,priority:2,sort:desc" json:"occurred_at"`
}
