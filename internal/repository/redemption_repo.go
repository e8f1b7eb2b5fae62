package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

// RedemptionFilter narrows redemption queries.
type RedemptionFilter struct {
	Page
	SocietyID *string
	CenterID  *string
	Status    *workflow.RedemptionStatus
	Name      string
}

// RedemptionRepository persists redemption requests.
type RedemptionRepository interface {
	WithTx(tx *gorm.DB) RedemptionRepository
	Create(ctx context.Context, redemption *models.RedemptionRequest) error
	UpdatePending(ctx context.Context, redemption *models.RedemptionRequest) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (models.RedemptionRequest, error)
	List(ctx context.Context, filter RedemptionFilter) ([]models.RedemptionRequest, int64, error)
	Transition(ctx context.Context, id string, change StatusChange) error
}

type redemptionRepository struct {
	db *gorm.DB
}

// NewRedemptionRepository constructs a redemption repository.
func NewRedemptionRepository(db *gorm.DB) RedemptionRepository {
	return &redemptionRepository{db: db}
}

func (r *redemptionRepository) WithTx(tx *gorm.DB) RedemptionRepository {
	return &redemptionRepository{db: tx}
}

var redemptionPreloads = []string{"User", "Society", "Center"}

func (r *redemptionRepository) baseQuery(ctx context.Context) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.RedemptionRequest{})
	for _, association := range redemptionPreloads {
		query = query.Preload(association)
	}
	return query
}

func (r *redemptionRepository) Create(ctx context.Context, redemption *models.RedemptionRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(redemption).Error
}

// UpdatePending rewrites the editable columns of a redemption that is still pending.
func (r *redemptionRepository) UpdatePending(ctx context.Context, redemption *models.RedemptionRequest) error {
	result := r.db.WithContext(ctx).Model(&models.RedemptionRequest{}).
		Where("id = ?", redemption.ID).
		Where("status = ?", workflow.RedemptionPending).
		Updates(map[string]interface{}{
			"name":        redemption.Name,
			"value":       redemption.Value,
			"description": redemption.Description,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return ErrStaleTransition
	}
	return nil
}

func (r *redemptionRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.RedemptionRequest{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *redemptionRepository) GetByID(ctx context.Context, id string) (models.RedemptionRequest, error) {
	var redemption models.RedemptionRequest
	if err := r.baseQuery(ctx).First(&redemption, "redemption_requests.id = ?", id).Error; err != nil {
		return models.RedemptionRequest{}, err
	}
	return redemption, nil
}

func (r *redemptionRepository) List(ctx context.Context, filter RedemptionFilter) ([]models.RedemptionRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RedemptionRequest{})

	if filter.SocietyID != nil {
		query = query.Where("society_id = ?", *filter.SocietyID)
	}
	if filter.CenterID != nil {
		query = query.Where("center_id = ?", *filter.CenterID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Name != "" {
		query = query.Where("name = ?", filter.Name)
	}

	return countAndFind[models.RedemptionRequest](query, filter.Page, "created_at DESC", redemptionPreloads...)
}

// Transition moves a redemption between statuses only if it is still in change.From.
func (r *redemptionRepository) Transition(ctx context.Context, id string, change StatusChange) error {
	updates := map[string]interface{}{"status": change.To}
	for column, value := range change.Fields {
		updates[column] = value
	}

	result := r.db.WithContext(ctx).Model(&models.RedemptionRequest{}).
		Where("id = ?", id).
		Where("status = ?", change.From).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != 1 {
		return ErrStaleTransition
	}
	return nil
}
