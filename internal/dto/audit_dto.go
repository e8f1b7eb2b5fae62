package dto

import (
	"time"

	"github.com/noah-isme/society-points-api/internal/models"
)

// AuditLogListRequest defines filters for the audit trail.
type AuditLogListRequest struct {
	Page       int
	PageSize   int
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
}

// AuditLogResponse serializes an audit entry.
type AuditLogResponse struct {
	ID         uint                   `json:"id"`
	ActorID    string                 `json:"actor_id"`
	ActorRoles string                 `json:"actor_roles"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AuditLogListResponse wraps a paginated audit response.
type AuditLogListResponse struct {
	Items      []AuditLogResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewAuditLogResponse converts an audit model into a DTO.
func NewAuditLogResponse(entry models.AuditLog) AuditLogResponse {
	metadata := map[string]interface{}{}
	for key, value := range entry.Metadata {
		metadata[key] = value
	}
	return AuditLogResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRoles: entry.ActorRoles,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
		CreatedAt:  entry.CreatedAt,
	}
}
