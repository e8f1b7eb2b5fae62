package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/models"
)

// CenterRepository provides access to centers.
type CenterRepository interface {
	GetByName(ctx context.Context, name string) (models.Center, error)
	List(ctx context.Context) ([]models.Center, error)
}

type centerRepository struct {
	db *gorm.DB
}

// NewCenterRepository constructs a center repository.
func NewCenterRepository(db *gorm.DB) CenterRepository {
	return &centerRepository{db: db}
}

func (r *centerRepository) GetByName(ctx context.Context, name string) (models.Center, error) {
	var center models.Center
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&center).Error; err != nil {
		return models.Center{}, err
	}
	return center, nil
}

func (r *centerRepository) List(ctx context.Context) ([]models.Center, error) {
	var centers []models.Center
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&centers).Error; err != nil {
		return nil, err
	}
	return centers, nil
}
