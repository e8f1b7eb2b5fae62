package dto

import (
	"time"

	"github.com/noah-isme/society-points-api/internal/models"
)

// LoggedActivityRequest is the payload for logging or editing an activity.
// Exactly one of ActivityID or ActivityTypeID identifies what was done.
type LoggedActivityRequest struct {
	ActivityID       *string `json:"activity_id" validate:"omitempty,min=1"`
	ActivityTypeID   *string `json:"activity_type_id" validate:"omitempty,min=1"`
	Date             *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	NoOfParticipants *int    `json:"no_of_participants" validate:"omitempty,min=1"`
	Name             string  `json:"name" validate:"max=255"`
	Description      string  `json:"description" validate:"max=4000"`
	Photo            string  `json:"photo" validate:"omitempty,max=512"`
}

// SecretaryReviewRequest carries the status chosen by a society secretary.
type SecretaryReviewRequest struct {
	Status string `json:"status" validate:"required"`
}

// MoreInfoRequest carries the context success ops send back to the owner.
type MoreInfoRequest struct {
	Comment string `json:"comment"`
}

// ApprovalRequest lists logged activities to approve in one call.
type ApprovalRequest struct {
	LoggedActivityIDs []string `json:"logged_activities_ids"`
}

// LoggedActivityListRequest defines filters for listing logged activities.
type LoggedActivityListRequest struct {
	Page      int
	PageSize  int
	Status    string
	SocietyID string
	UserID    string
}

// LoggedActivityResponse serializes a logged activity.
type LoggedActivityResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Photo            string     `json:"photo"`
	Value            int        `json:"value"`
	Status           string     `json:"status"`
	Redeemed         bool       `json:"redeemed"`
	ActivityDate     string     `json:"activity_date"`
	NoOfParticipants *int       `json:"no_of_participants,omitempty"`
	ActivityTypeID   string     `json:"activity_type_id"`
	ActivityType     string     `json:"activity_type"`
	ActivityID       *string    `json:"activity_id,omitempty"`
	UserID           string     `json:"user_id"`
	Owner            string     `json:"owner"`
	SocietyID        string     `json:"society_id"`
	Society          string     `json:"society"`
	ReviewerID       *string    `json:"reviewer_id,omitempty"`
	ApproverID       *string    `json:"approver_id,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// LoggedActivityListResponse wraps a paginated logged activity response.
type LoggedActivityListResponse struct {
	Items      []LoggedActivityResponse `json:"items"`
	Pagination PaginationMeta           `json:"pagination"`
}

// ApprovalResponse reports the outcome of a batch approval.
type ApprovalResponse struct {
	Approved []LoggedActivityResponse `json:"approved"`
	Skipped  []string                 `json:"skipped"`
	Failed   []string                 `json:"failed"`
}

// UserPointsSummary aggregates a user's logged activities and approved points.
type UserPointsSummary struct {
	UserID           string                   `json:"user_id"`
	Society          string                   `json:"society,omitempty"`
	SocietyID        string                   `json:"society_id,omitempty"`
	ActivitiesLogged int                      `json:"activities_logged"`
	PointsEarned     int                      `json:"points_earned"`
	Items            []LoggedActivityResponse `json:"items"`
}

// NewLoggedActivityResponse converts a logged activity model into a DTO.
func NewLoggedActivityResponse(activity models.LoggedActivity) LoggedActivityResponse {
	return LoggedActivityResponse{
		ID:               activity.ID,
		Name:             activity.Name,
		Description:      activity.Description,
		Photo:            activity.Photo,
		Value:            activity.Value,
		Status:           string(activity.Status),
		Redeemed:         activity.Redeemed,
		ActivityDate:     activity.ActivityDate.UTC().Format(DateLayout),
		NoOfParticipants: activity.NoOfParticipants,
		ActivityTypeID:   activity.ActivityTypeID,
		ActivityType:     activity.ActivityType.Name,
		ActivityID:       activity.ActivityID,
		UserID:           activity.UserID,
		Owner:            activity.User.Name,
		SocietyID:        activity.SocietyID,
		Society:          activity.Society.Name,
		ReviewerID:       activity.ReviewerID,
		ApproverID:       activity.ApproverID,
		ApprovedAt:       activity.ApprovedAt,
		CreatedAt:        activity.CreatedAt,
		UpdatedAt:        activity.UpdatedAt,
	}
}

// NewLoggedActivityResponseSlice converts a slice of logged activities.
func NewLoggedActivityResponseSlice(items []models.LoggedActivity) []LoggedActivityResponse {
	responses := make([]LoggedActivityResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewLoggedActivityResponse(item))
	}
	return responses
}
