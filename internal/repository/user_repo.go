package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/society-points-api/internal/models"
)

// UserRepository provides access to users and their roles.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	WithTx(tx *gorm.DB) UserRepository
	AddRole(ctx context.Context, userID, roleID string) error
	RemoveRoleInSociety(ctx context.Context, roleID, societyID string) (int64, error)
	RemoveRolesByName(ctx context.Context, userID string, names []string) error
	SetSociety(ctx context.Context, userID, societyID string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Roles").
		Preload("Society").
		Preload("Center")
}

func (r *userRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if err := r.baseQuery(ctx).First(&user, "users.id = ?", id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := r.baseQuery(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Create inserts the user and links any roles already present on it.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Society", "Center").Create(user).Error
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) AddRole(ctx context.Context, userID, roleID string) error {
	return r.db.WithContext(ctx).Model(&models.User{ID: userID}).Association("Roles").Append(&models.Role{ID: roleID})
}

// RemoveRoleInSociety strips the role from every member of the society and reports how many held it.
func (r *userRepository) RemoveRoleInSociety(ctx context.Context, roleID, societyID string) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		"DELETE FROM user_roles WHERE role_id = ? AND user_id IN (SELECT id FROM users WHERE society_id = ?)",
		roleID, societyID,
	)
	return result.RowsAffected, result.Error
}

func (r *userRepository) RemoveRolesByName(ctx context.Context, userID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(
		"DELETE FROM user_roles WHERE user_id = ? AND role_id IN (SELECT id FROM roles WHERE LOWER(name) IN ?)",
		userID, names,
	).Error
}

func (r *userRepository) SetSociety(ctx context.Context, userID, societyID string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("society_id", societyID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
