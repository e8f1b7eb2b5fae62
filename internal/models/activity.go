package models

import (
	"time"

	"gorm.io/gorm"
)

// ActivityType defines a category of point-worthy activity and its base value.
type ActivityType struct {
	ID                           string    `gorm:"primaryKey;size:36" json:"id"`
	Name                         string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description                  string    `gorm:"type:text" json:"description"`
	Value                        int       `gorm:"not null" json:"value"`
	SupportsMultipleParticipants bool      `gorm:"not null;default:false" json:"supports_multiple_participants"`
	CreatedAt                    time.Time `json:"created_at"`
	UpdatedAt                    time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when none was supplied.
func (a *ActivityType) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// Activity is a scheduled event members can log participation in.
type Activity struct {
	ID             string       `gorm:"primaryKey;size:36" json:"id"`
	Name           string       `gorm:"size:255;not null" json:"name"`
	Description    string       `gorm:"type:text" json:"description"`
	ActivityTypeID string       `gorm:"size:36;not null;index" json:"activity_type_id"`
	ActivityDate   time.Time    `gorm:"not null" json:"activity_date"`
	AddedByID      string       `gorm:"size:36;not null" json:"added_by_id"`
	ActivityType   ActivityType `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"activity_type"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// BeforeCreate assigns a UUID when none was supplied.
func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
