package models

import (
	"time"

	"gorm.io/gorm"
)

// PointKind selects which ledger counter a credit lands on.
type PointKind string

const (
	// PointsEarned accumulates values of approved logged activities.
	PointsEarned PointKind = "earned"
	// PointsUsed accumulates values of approved redemptions.
	PointsUsed PointKind = "used"
)

// Column returns the societies column backing the counter.
func (k PointKind) Column() string {
	switch k {
	case PointsEarned:
		return "total_points"
	case PointsUsed:
		return "used_points"
	default:
		return ""
	}
}

// Society is a team that earns points collectively and redeems them.
//
// TotalPoints and UsedPoints only ever grow; the remaining balance is derived.
type Society struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	ColorScheme string    `gorm:"size:64" json:"color_scheme"`
	Logo        string    `gorm:"size:512" json:"logo"`
	Photo       string    `gorm:"size:512" json:"photo"`
	TotalPoints int       `gorm:"not null;default:0" json:"total_points"`
	UsedPoints  int       `gorm:"not null;default:0" json:"used_points"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when none was supplied.
func (s *Society) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// RemainingPoints is the balance available for redemption.
func (s Society) RemainingPoints() int {
	return s.TotalPoints - s.UsedPoints
}

// CreditEarned adds an approved activity value to the earned counter.
func (s *Society) CreditEarned(amount int) {
	s.Credit(PointsEarned, amount)
}

// CreditUsed adds an approved redemption value to the used counter.
func (s *Society) CreditUsed(amount int) {
	s.Credit(PointsUsed, amount)
}

// Credit accumulates amount on the counter selected by kind. Non-positive amounts are ignored.
func (s *Society) Credit(kind PointKind, amount int) {
	if amount <= 0 {
		return
	}
	switch kind {
	case PointsEarned:
		s.TotalPoints += amount
	case PointsUsed:
		s.UsedPoints += amount
	}
}
