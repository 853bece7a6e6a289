package models

import "github.com/google/uuid"

type Category struct {
	BaseModel
	Name        string     `json:"name"`
	Slug        string     `gorm:"uniqueIndex" json:"slug"`
	Audience    string     `json:"audience"`
	Description string     `json:"description"`
	HeroImage   string     `json:"hero_image"`
	ParentID    *uuid.UUID `gorm:"type:uuid" json:"parent_id"`
	Products    []Product  `json:"products,omitempty"`
}

type Brand struct {
	BaseModel
	Name        string    `json:"name"`
	Slug        string    `gorm:"uniqueIndex" json:"slug"`
	Description string    `json:"description"`
	Country     string    `json:"country"`
	Logo        string    `json:"logo"`
	Products    []Product `json:"products,omitempty"`
}
