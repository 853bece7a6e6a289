package models

import "time"

type NewsletterSubscriber struct {
	BaseModel
	Email          string     `gorm:"uniqueIndex" json:"email"`
	Source         string     `json:"source"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
}
