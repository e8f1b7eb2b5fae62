package dto

import (
	"time"

	"github.com/noah-isme/society-points-api/internal/models"
)

// RedemptionCreateRequest is submitted by a society president.
type RedemptionCreateRequest struct {
	Reason      string `json:"reason" validate:"required,max=255"`
	Value       int    `json:"value" validate:"gt=0"`
	Center      string `json:"center" validate:"required"`
	Description string `json:"description" validate:"max=4000"`
}

// RedemptionUpdateRequest captures partial edits to a pending redemption.
type RedemptionUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Value       *int    `json:"value" validate:"omitempty,gt=0"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
}

// RedemptionDecisionRequest approves or rejects a redemption.
type RedemptionDecisionRequest struct {
	Status    string `json:"status" validate:"required"`
	Rejection string `json:"rejection" validate:"max=2000"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// RedemptionListRequest defines filters for listing redemptions.
type RedemptionListRequest struct {
	Page     int
	PageSize int
	Society  string
	Status   string
	Name     string
	Center   string
}

// RedemptionResponse serializes a redemption request.
type RedemptionResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Value       int        `json:"value"`
	Status      string     `json:"status"`
	Comment     string     `json:"comment,omitempty"`
	Rejection   string     `json:"rejection,omitempty"`
	UserID      string     `json:"user_id"`
	Requester   string     `json:"requester"`
	SocietyID   string     `json:"society_id"`
	Society     string     `json:"society"`
	CenterID    string     `json:"center_id"`
	Center      string     `json:"center"`
	DecidedByID *string    `json:"decided_by_id,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RedemptionListResponse wraps a paginated redemption response.
type RedemptionListResponse struct {
	Items      []RedemptionResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewRedemptionResponse converts a redemption model into a DTO.
func NewRedemptionResponse(redemption models.RedemptionRequest) RedemptionResponse {
	return RedemptionResponse{
		ID:          redemption.ID,
		Name:        redemption.Name,
		Description: redemption.Description,
		Value:       redemption.Value,
		Status:      string(redemption.Status),
		Comment:     redemption.Comment,
		Rejection:   redemption.Rejection,
		UserID:      redemption.UserID,
		Requester:   redemption.User.Name,
		SocietyID:   redemption.SocietyID,
		Society:     redemption.Society.Name,
		CenterID:    redemption.CenterID,
		Center:      redemption.Center.Name,
		DecidedByID: redemption.DecidedByID,
		DecidedAt:   redemption.DecidedAt,
		CreatedAt:   redemption.CreatedAt,
		UpdatedAt:   redemption.UpdatedAt,
	}
}
