package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/workflow"
)

// Role is a named permission grant held by users.
type Role struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when none was supplied.
func (r *Role) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// User is a member of the organization, optionally belonging to a society.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Photo     string    `gorm:"size:512" json:"photo"`
	SocietyID *string   `gorm:"size:36;index" json:"society_id"`
	CenterID  *string   `gorm:"size:36" json:"center_id"`
	Society   *Society  `json:"society,omitempty"`
	Center    *Center   `json:"center,omitempty"`
	Roles     []Role    `gorm:"many2many:user_roles" json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when none was supplied.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// RoleSet returns the user's roles as a workflow role set.
func (u User) RoleSet() workflow.RoleSet {
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return workflow.NewRoleSet(names...)
}

// HasSociety reports whether the user currently belongs to a society.
func (u User) HasSociety() bool {
	return u.SocietyID != nil && *u.SocietyID != ""
}
