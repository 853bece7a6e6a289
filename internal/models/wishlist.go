package models

import "github.com/google/uuid"

// WishlistItem is a saved product. Name, image and price are captured when
// the item is added and are not refreshed from the catalog.
type WishlistItem struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_wishlist_user_product,priority:1" json:"user_id"`
	ProductID  int64     `gorm:"uniqueIndex:idx_wishlist_user_product,priority:2" json:"product_id"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	Image      string    `json:"image"`
	Price      float64   `json:"price"`
}
