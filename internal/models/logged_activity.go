package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/workflow"
)

// LoggedActivity is a member's claim of participation awaiting review.
type LoggedActivity struct {
	ID               string                  `gorm:"primaryKey;size:36" json:"id"`
	Name             string                  `gorm:"size:255" json:"name"`
	Description      string                  `gorm:"type:text" json:"description"`
	Photo            string                  `gorm:"size:512" json:"photo"`
	Value            int                     `gorm:"not null" json:"value"`
	Status           workflow.ActivityStatus `gorm:"size:32;not null;default:'in review';index" json:"status"`
	ActivityDate     time.Time               `gorm:"not null" json:"activity_date"`
	Redeemed         bool                    `gorm:"not null;default:false" json:"redeemed"`
	NoOfParticipants *int                    `json:"no_of_participants"`
	ApprovedAt       *time.Time              `json:"approved_at"`
	ApproverID       *string                 `gorm:"size:36" json:"approver_id"`
	ReviewerID       *string                 `gorm:"size:36" json:"reviewer_id"`
	ActivityTypeID   string                  `gorm:"size:36;not null" json:"activity_type_id"`
	UserID           string                  `gorm:"size:36;not null;index" json:"user_id"`
	SocietyID        string                  `gorm:"size:36;not null;index" json:"society_id"`
	ActivityID       *string                 `gorm:"size:36" json:"activity_id"`
	ActivityType     ActivityType            `json:"activity_type"`
	Activity         *Activity               `json:"activity,omitempty"`
	User             User                    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	Society          Society                 `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"society"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// BeforeCreate assigns a UUID and the initial review status.
func (l *LoggedActivity) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	if l.Status == "" {
		l.Status = workflow.ActivityInReview
	}
	return nil
}

// ApprovalEligible reports whether the item may be approved and credited.
func (l LoggedActivity) ApprovalEligible() bool {
	return !l.Redeemed && l.Status == workflow.ActivityPending
}
