package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a catalog entry, either managed locally or mirrored from the
// external shop platform (Source + ExternalID).
type Product struct {
	BaseModel
	ExternalID     string           `gorm:"uniqueIndex" json:"external_id"`
	Source         string           `json:"source"`
	Slug           string           `gorm:"uniqueIndex" json:"slug"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Audience       string           `json:"audience"`
	Price          float64          `json:"price"`
	CompareAtPrice float64          `json:"compare_at_price"`
	Currency       string           `json:"currency"`
	HeroImage      string           `json:"hero_image"`
	Images         pq.StringArray   `gorm:"type:text[]" json:"images"`
	Tags           pq.StringArray   `gorm:"type:text[]" json:"tags"`
	IsActive       bool             `gorm:"default:true" json:"is_active"`
	BrandID        *uuid.UUID       `gorm:"type:uuid" json:"brand_id"`
	Brand          *Brand           `json:"brand,omitempty"`
	CategoryID     *uuid.UUID       `gorm:"type:uuid" json:"category_id"`
	Category       *Category        `json:"category,omitempty"`
	Variants       []ProductVariant `json:"variants,omitempty"`
}

// ProductVariant is a purchasable size/colour configuration of a product.
type ProductVariant struct {
	BaseModel
	ProductID         uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	ExternalID        string    `gorm:"index" json:"external_id"`
	SKU               string    `json:"sku"`
	Label             string    `json:"label"`
	Size              string    `json:"size"`
	Color             string    `json:"color"`
	Price             float64   `json:"price"`
	InventoryQuantity int       `json:"inventory_quantity"`
	InStock           bool      `json:"in_stock"`
}
