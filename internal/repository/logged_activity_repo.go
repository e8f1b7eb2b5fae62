package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

// LoggedActivityFilter narrows logged activity queries.
type LoggedActivityFilter struct {
	Page
	UserID    *string
	SocietyID *string
	Status    *workflow.ActivityStatus
}

// StatusChange describes a conditional status update and the columns written alongside it.
type StatusChange struct {
	From   string
	To     string
	Fields map[string]interface{}
}

// LoggedActivityRepository persists logged activities.
type LoggedActivityRepository interface {
	WithTx(tx *gorm.DB) LoggedActivityRepository
	Create(ctx context.Context, activity *models.LoggedActivity) error
	UpdateInReview(ctx context.Context, activity *models.LoggedActivity) error
	DeleteInReview(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (models.LoggedActivity, error)
	GetByIDForUser(ctx context.Context, id, userID string) (models.LoggedActivity, error)
	List(ctx context.Context, filter LoggedActivityFilter) ([]models.LoggedActivity, int64, error)
	SumApprovedValue(ctx context.Context, userID string) (int, error)
	Transition(ctx context.Context, id string, change StatusChange) error
}

type loggedActivityRepository struct {
	db *gorm.DB
}

// NewLoggedActivityRepository constructs a logged activity repository.
func NewLoggedActivityRepository(db *gorm.DB) LoggedActivityRepository {
	return &loggedActivityRepository{db: db}
}

func (r *loggedActivityRepository) WithTx(tx *gorm.DB) LoggedActivityRepository {
	return &loggedActivityRepository{db: tx}
}

var loggedActivityPreloads = []string{"ActivityType", "Activity", "User", "Society"}

func (r *loggedActivityRepository) baseQuery(ctx context.Context) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.LoggedActivity{})
	for _, association := range loggedActivityPreloads {
		query = query.Preload(association)
	}
	return query
}

func (r *loggedActivityRepository) Create(ctx context.Context, activity *models.LoggedActivity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(activity).Error
}

// UpdateInReview rewrites the owner-editable columns of an activity that is still in review.
func (r *loggedActivityRepository) UpdateInReview(ctx context.Context, activity *models.LoggedActivity) error {
	result := r.db.WithContext(ctx).Model(&models.LoggedActivity{}).
		Where("id = ?", activity.ID).
		Where("status = ?", workflow.ActivityInReview).
		Updates(map[string]interface{}{
			"name":               activity.Name,
			"description":        activity.Description,
			"photo":              activity.Photo,
			"value":              activity.Value,
			"activity_date":      activity.ActivityDate,
			"no_of_participants": activity.NoOfParticipants,
			"activity_type_id":   activity.ActivityTypeID,
			"activity_id":        activity.ActivityID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return ErrStaleTransition
	}
	return nil
}

// DeleteInReview removes an activity only while it is still in review.
func (r *loggedActivityRepository) DeleteInReview(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("status = ?", workflow.ActivityInReview).
		Delete(&models.LoggedActivity{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return ErrStaleTransition
	}
	return nil
}

func (r *loggedActivityRepository) GetByID(ctx context.Context, id string) (models.LoggedActivity, error) {
	var activity models.LoggedActivity
	if err := r.baseQuery(ctx).First(&activity, "logged_activities.id = ?", id).Error; err != nil {
		return models.LoggedActivity{}, err
	}
	return activity, nil
}

func (r *loggedActivityRepository) GetByIDForUser(ctx context.Context, id, userID string) (models.LoggedActivity, error) {
	var activity models.LoggedActivity
	if err := r.baseQuery(ctx).
		Where("logged_activities.id = ?", id).
		Where("logged_activities.user_id = ?", userID).
		First(&activity).Error; err != nil {
		return models.LoggedActivity{}, err
	}
	return activity, nil
}

func (r *loggedActivityRepository) List(ctx context.Context, filter LoggedActivityFilter) ([]models.LoggedActivity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LoggedActivity{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.SocietyID != nil {
		query = query.Where("society_id = ?", *filter.SocietyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	return countAndFind[models.LoggedActivity](query, filter.Page, "created_at DESC", loggedActivityPreloads...)
}

// SumApprovedValue totals the values of a user's approved logged activities.
func (r *loggedActivityRepository) SumApprovedValue(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.db.WithContext(ctx).Model(&models.LoggedActivity{}).
		Select("COALESCE(SUM(value), 0)").
		Where("user_id = ?", userID).
		Where("status = ?", workflow.ActivityApproved).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Transition moves a logged activity between statuses only if it is still in change.From.
// Approvals additionally require the item to be unredeemed.
func (r *loggedActivityRepository) Transition(ctx context.Context, id string, change StatusChange) error {
	updates := map[string]interface{}{"status": change.To}
	for column, value := range change.Fields {
		updates[column] = value
	}

	query := r.db.WithContext(ctx).Model(&models.LoggedActivity{}).
		Where("id = ?", id).
		Where("status = ?", change.From)
	if change.To == string(workflow.ActivityApproved) {
		query = query.Where("redeemed = ?", false)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return ErrStaleTransition
	}
	return nil
}
