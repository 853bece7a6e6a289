package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	BaseModel
	UserID          uuid.UUID   `gorm:"type:uuid;index" json:"user_id"`
	User            *User       `json:"user,omitempty"`
	OrderNumber     string      `gorm:"uniqueIndex" json:"order_number"`
	Status          string      `json:"status"`
	PlacedAt        time.Time   `json:"placed_at"`
	Subtotal        float64     `json:"subtotal"`
	Discount        float64     `json:"discount"`
	TotalAmount     float64     `json:"total_amount"`
	Currency        string      `json:"currency"`
	PointsRedeemed  int         `json:"points_redeemed"`
	PointsEarned    int         `json:"points_earned"`
	ShippingName    string      `json:"shipping_name"`
	ShippingPhone   string      `json:"shipping_phone"`
	ShippingAddress string      `json:"shipping_address"`
	ShippingCity    string      `json:"shipping_city"`
	PaymentMethod   string      `json:"payment_method"`
	Notes           string      `json:"notes"`
	Items           []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	BaseModel
	OrderID      uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	LineID       string    `json:"line_id"`
	ProductName  string    `json:"product_name"`
	VariantLabel string    `json:"variant_label"`
	Image        string    `json:"image"`
	Quantity     int       `json:"quantity"`
	UnitPrice    float64   `json:"unit_price"`
	LineTotal    float64   `json:"line_total"`
}
