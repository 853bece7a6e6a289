package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel is embedded by every table keyed by a uuid. The database default
// covers raw inserts; the hook covers rows created through gorm so the id is
// known before the INSERT returns.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Persisted reports whether the row has been assigned an id.
func (b BaseModel) Persisted() bool {
	return b.ID != uuid.Nil
}

// Detach clears the identity so the value is inserted as a new row.
func (b *BaseModel) Detach() {
	b.ID = uuid.Nil
	b.CreatedAt, b.UpdatedAt = time.Time{}, time.Time{}
}

func (b *BaseModel) BeforeCreate(*gorm.DB) error {
	if !b.Persisted() {
		b.ID = uuid.New()
	}
	return nil
}
