package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog captures ledger-affecting decisions taken by reviewers.
type AuditLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    string            `gorm:"size:36;not null" json:"actor_id"`
	ActorRoles string            `gorm:"size:255" json:"actor_roles"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID   string            `gorm:"size:36" json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
