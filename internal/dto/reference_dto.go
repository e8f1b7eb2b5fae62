package dto

import (
	"time"

	"github.com/noah-isme/society-points-api/internal/models"
)

// ActivityTypeCreateRequest creates an activity type.
type ActivityTypeCreateRequest struct {
	Name                         string `json:"name" validate:"required,max=255"`
	Description                  string `json:"description" validate:"max=4000"`
	Value                        int    `json:"value" validate:"gt=0"`
	SupportsMultipleParticipants bool   `json:"supports_multiple_participants"`
}

// ActivityTypeResponse serializes an activity type.
type ActivityTypeResponse struct {
	ID                           string `json:"id"`
	Name                         string `json:"name"`
	Description                  string `json:"description"`
	Value                        int    `json:"value"`
	SupportsMultipleParticipants bool   `json:"supports_multiple_participants"`
}

// NewActivityTypeResponse converts an activity type model into a DTO.
func NewActivityTypeResponse(activityType models.ActivityType) ActivityTypeResponse {
	return ActivityTypeResponse{
		ID:                           activityType.ID,
		Name:                         activityType.Name,
		Description:                  activityType.Description,
		Value:                        activityType.Value,
		SupportsMultipleParticipants: activityType.SupportsMultipleParticipants,
	}
}

// ActivityCreateRequest schedules an activity members can log against.
type ActivityCreateRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	Description    string `json:"description" validate:"max=4000"`
	ActivityTypeID string `json:"activity_type_id" validate:"required"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
}

// ActivityResponse serializes an activity.
type ActivityResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	ActivityDate string               `json:"activity_date"`
	AddedByID    string               `json:"added_by_id"`
	ActivityType ActivityTypeResponse `json:"activity_type"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ActivityListResponse wraps a paginated activity response.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts an activity model into a DTO.
func NewActivityResponse(activity models.Activity) ActivityResponse {
	return ActivityResponse{
		ID:           activity.ID,
		Name:         activity.Name,
		Description:  activity.Description,
		ActivityDate: activity.ActivityDate.UTC().Format(DateLayout),
		AddedByID:    activity.AddedByID,
		ActivityType: NewActivityTypeResponse(activity.ActivityType),
		CreatedAt:    activity.CreatedAt,
	}
}

// RoleCreateRequest creates a role.
type RoleCreateRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=2000"`
}

// RoleUpdateRequest renames or redescribes a role.
type RoleUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=128"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// ExecutiveAppointmentRequest hands a society office to a member of that society.
type ExecutiveAppointmentRequest struct {
	Role      string `json:"role" validate:"required"`
	SocietyID string `json:"society_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
}

// SocietyAssignmentRequest moves a user into a society.
type SocietyAssignmentRequest struct {
	SocietyID string `json:"society_id" validate:"required"`
}

// RoleResponse serializes a role.
type RoleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RoleListResponse wraps a paginated role response.
type RoleListResponse struct {
	Items      []RoleResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// NewRoleResponse converts a role model into a DTO.
func NewRoleResponse(role models.Role) RoleResponse {
	return RoleResponse{ID: role.ID, Name: role.Name, Description: role.Description}
}

// CenterResponse serializes a center.
type CenterResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewCenterResponse converts a center model into a DTO.
func NewCenterResponse(center models.Center) CenterResponse {
	return CenterResponse{ID: center.ID, Name: center.Name}
}

// UserResponse serializes the authenticated user.
type UserResponse struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Email   string           `json:"email"`
	Photo   string           `json:"photo"`
	Roles   []string         `json:"roles"`
	Society *SocietyResponse `json:"society,omitempty"`
	Center  *CenterResponse  `json:"center,omitempty"`
}

// NewUserResponse converts a user model into a DTO.
func NewUserResponse(user models.User) UserResponse {
	response := UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Photo: user.Photo,
		Roles: user.RoleSet().Names(),
	}
	if user.Society != nil {
		society := NewSocietyResponse(*user.Society)
		response.Society = &society
	}
	if user.Center != nil {
		center := NewCenterResponse(*user.Center)
		response.Center = &center
	}
	return response
}
