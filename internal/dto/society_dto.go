package dto

import (
	"time"

	"github.com/noah-isme/society-points-api/internal/models"
)

// SocietyCreateRequest creates a society.
type SocietyCreateRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=4000"`
	ColorScheme string `json:"color_scheme" validate:"max=64"`
	Logo        string `json:"logo" validate:"omitempty,max=512"`
	Photo       string `json:"photo" validate:"omitempty,max=512"`
}

// SocietyUpdateRequest captures partial profile edits.
type SocietyUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	ColorScheme *string `json:"color_scheme" validate:"omitempty,max=64"`
	Logo        *string `json:"logo" validate:"omitempty,max=512"`
	Photo       *string `json:"photo" validate:"omitempty,max=512"`
}

// SocietyListRequest defines filters for listing societies.
type SocietyListRequest struct {
	Page     int
	PageSize int
	Name     string
}

// SocietyResponse serializes a society and its balance.
type SocietyResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	ColorScheme     string    `json:"color_scheme"`
	Logo            string    `json:"logo"`
	Photo           string    `json:"photo"`
	TotalPoints     int       `json:"total_points"`
	UsedPoints      int       `json:"used_points"`
	RemainingPoints int       `json:"remaining_points"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SocietyDetailResponse adds the society's logged activities.
type SocietyDetailResponse struct {
	SocietyResponse
	LoggedActivities []LoggedActivityResponse `json:"logged_activities"`
}

// SocietyListResponse wraps a paginated society response.
type SocietyListResponse struct {
	Items      []SocietyResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewSocietyResponse converts a society model into a DTO.
func NewSocietyResponse(society models.Society) SocietyResponse {
	return SocietyResponse{
		ID:              society.ID,
		Name:            society.Name,
		Description:     society.Description,
		ColorScheme:     society.ColorScheme,
		Logo:            society.Logo,
		Photo:           society.Photo,
		TotalPoints:     society.TotalPoints,
		UsedPoints:      society.UsedPoints,
		RemainingPoints: society.RemainingPoints(),
		CreatedAt:       society.CreatedAt,
		UpdatedAt:       society.UpdatedAt,
	}
}
