package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/society-points-api/internal/models"
)

// ActivityTypeRepository provides access to activity type reference data.
type ActivityTypeRepository interface {
	Create(ctx context.Context, activityType *models.ActivityType) error
	GetByID(ctx context.Context, id string) (models.ActivityType, error)
	GetByName(ctx context.Context, name string) (models.ActivityType, error)
	List(ctx context.Context) ([]models.ActivityType, error)
}

// ActivityRepository provides access to scheduled activities.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id string) (models.Activity, error)
	List(ctx context.Context, page Page) ([]models.Activity, int64, error)
}

type activityTypeRepository struct {
	db *gorm.DB
}

// NewActivityTypeRepository constructs an activity type repository.
func NewActivityTypeRepository(db *gorm.DB) ActivityTypeRepository {
	return &activityTypeRepository{db: db}
}

func (r *activityTypeRepository) Create(ctx context.Context, activityType *models.ActivityType) error {
	return r.db.WithContext(ctx).Create(activityType).Error
}

func (r *activityTypeRepository) GetByID(ctx context.Context, id string) (models.ActivityType, error) {
	var activityType models.ActivityType
	if err := r.db.WithContext(ctx).First(&activityType, "id = ?", id).Error; err != nil {
		return models.ActivityType{}, err
	}
	return activityType, nil
}

func (r *activityTypeRepository) GetByName(ctx context.Context, name string) (models.ActivityType, error) {
	var activityType models.ActivityType
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&activityType).Error; err != nil {
		return models.ActivityType{}, err
	}
	return activityType, nil
}

func (r *activityTypeRepository) List(ctx context.Context) ([]models.ActivityType, error) {
	var activityTypes []models.ActivityType
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&activityTypes).Error; err != nil {
		return nil, err
	}
	return activityTypes, nil
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs an activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(activity).Error
}

func (r *activityRepository) GetByID(ctx context.Context, id string) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).Preload("ActivityType").First(&activity, "activities.id = ?", id).Error; err != nil {
		return models.Activity{}, err
	}
	return activity, nil
}

func (r *activityRepository) List(ctx context.Context, page Page) ([]models.Activity, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Activity{})
	return countAndFind[models.Activity](query, page, "activity_date DESC", "ActivityType")
}
