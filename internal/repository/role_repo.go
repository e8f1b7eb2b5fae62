package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/models"
)

// RoleRepository persists roles.
type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id string) (models.Role, error)
	GetByName(ctx context.Context, name string) (models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	List(ctx context.Context, search string, page Page) ([]models.Role, int64, error)
	Delete(ctx context.Context, id string) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository constructs a role repository.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *models.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *roleRepository) GetByID(ctx context.Context, id string) (models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return models.Role{}, err
	}
	return role, nil
}

func (r *roleRepository) Update(ctx context.Context, role *models.Role) error {
	result := r.db.WithContext(ctx).Model(&models.Role{}).Where("id = ?", role.ID).
		Updates(map[string]interface{}{"name": role.Name, "description": role.Description})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&role).Error; err != nil {
		return models.Role{}, err
	}
	return role, nil
}

func (r *roleRepository) List(ctx context.Context, search string, page Page) ([]models.Role, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Role{})
	if search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
	}
	return countAndFind[models.Role](query, page, "name ASC")
}

func (r *roleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_roles WHERE role_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&role).Error
	})
}
