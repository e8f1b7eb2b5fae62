package models

import (
	"time"

	"gorm.io/gorm"
)

// Center represents a physical location that redemptions are fulfilled at.
type Center struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when none was supplied.
func (c *Center) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
