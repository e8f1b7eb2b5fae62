package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/models"
)

// SocietyFilter narrows society queries.
type SocietyFilter struct {
	Page
	Name string
}

// CreditOptions tunes a ledger credit.
type CreditOptions struct {
	// RequireBalance rejects a used-points credit that would make the remaining balance negative.
	RequireBalance bool
}

// SocietyRepository persists societies and their point counters.
type SocietyRepository interface {
	WithTx(tx *gorm.DB) SocietyRepository
	Create(ctx context.Context, society *models.Society) error
	UpdateProfile(ctx context.Context, society *models.Society) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (models.Society, error)
	GetByName(ctx context.Context, name string) (models.Society, error)
	List(ctx context.Context, filter SocietyFilter) ([]models.Society, int64, error)
	Credit(ctx context.Context, societyID string, kind models.PointKind, amount int, opts CreditOptions) error
}

type societyRepository struct {
	db *gorm.DB
}

// NewSocietyRepository constructs a society repository.
func NewSocietyRepository(db *gorm.DB) SocietyRepository {
	return &societyRepository{db: db}
}

func (r *societyRepository) WithTx(tx *gorm.DB) SocietyRepository {
	return &societyRepository{db: tx}
}

func (r *societyRepository) Create(ctx context.Context, society *models.Society) error {
	return r.db.WithContext(ctx).Create(society).Error
}

// UpdateProfile saves descriptive fields only; point counters are never written here.
func (r *societyRepository) UpdateProfile(ctx context.Context, society *models.Society) error {
	return r.db.WithContext(ctx).
		Model(society).
		Select("name", "description", "color_scheme", "logo", "photo").
		Updates(society).Error
}

func (r *societyRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Society{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *societyRepository) GetByID(ctx context.Context, id string) (models.Society, error) {
	var society models.Society
	if err := r.db.WithContext(ctx).First(&society, "id = ?", id).Error; err != nil {
		return models.Society{}, err
	}
	return society, nil
}

func (r *societyRepository) GetByName(ctx context.Context, name string) (models.Society, error) {
	var society models.Society
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&society).Error; err != nil {
		return models.Society{}, err
	}
	return society, nil
}

func (r *societyRepository) List(ctx context.Context, filter SocietyFilter) ([]models.Society, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Society{})
	if filter.Name != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	return countAndFind[models.Society](query, filter.Page, "name ASC")
}

// Credit atomically adds amount to the counter selected by kind.
func (r *societyRepository) Credit(ctx context.Context, societyID string, kind models.PointKind, amount int, opts CreditOptions) error {
	column := kind.Column()
	if column == "" {
		return fmt.Errorf("unknown point kind %q", kind)
	}
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	query := r.db.WithContext(ctx).Model(&models.Society{}).Where("id = ?", societyID)
	if kind == models.PointsUsed && opts.RequireBalance {
		query = query.Where("total_points - used_points >= ?", amount)
	}

	result := query.UpdateColumn(column, gorm.Expr(column+" + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	if kind == models.PointsUsed && opts.RequireBalance {
		if _, err := r.GetByID(ctx, societyID); err != nil {
			return err
		}
		return ErrInsufficientPoints
	}
	return gorm.ErrRecordNotFound
}
