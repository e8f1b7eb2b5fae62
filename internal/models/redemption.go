package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/workflow"
)

// RedemptionRequest asks to convert society points into a reward.
type RedemptionRequest struct {
	ID          string                    `gorm:"primaryKey;size:36" json:"id"`
	Name        string                    `gorm:"size:255;not null" json:"name"`
	Description string                    `gorm:"type:text" json:"description"`
	Value       int                       `gorm:"not null" json:"value"`
	Status      workflow.RedemptionStatus `gorm:"size:32;not null;default:'pending';index" json:"status"`
	Comment     string                    `gorm:"type:text" json:"comment"`
	Rejection   string                    `gorm:"type:text" json:"rejection"`
	UserID      string                    `gorm:"size:36;not null;index" json:"user_id"`
	SocietyID   string                    `gorm:"size:36;not null;index" json:"society_id"`
	CenterID    string                    `gorm:"size:36;not null" json:"center_id"`
	DecidedByID *string                   `gorm:"size:36" json:"decided_by_id"`
	DecidedAt   *time.Time                `json:"decided_at"`
	User        User                      `json:"user"`
	Society     Society                   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"society"`
	Center      Center                    `json:"center"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

// BeforeCreate assigns a UUID and the initial pending status.
func (r *RedemptionRequest) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	if r.Status == "" {
		r.Status = workflow.RedemptionPending
	}
	return nil
}
