package repositories

import (
	"context"

	"unem-umt/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// withRoles preloads role assignments
func (r *userRepository) withRoles(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Roles")
}

// Create creates a new user together with its role rows
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.withRoles(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetByUsername gets a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.withRoles(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetByEmail gets a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.withRoles(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetByLogin gets a user by username or email
func (r *userRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := r.withRoles(ctx).
		Where("username = ? OR email = ?", login, login).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Update updates a user
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Roles").Save(user).Error
}

// Delete soft deletes a user and drops its role rows
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.User{}, id).Error
}

// List lists users with pagination
func (r *userRepository) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.withRoles(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// ExistsByUsername checks if username exists
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// ExistsByEmail checks if email exists
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// AddRole grants a role; granting a held role is a no-op
func (r *userRepository) AddRole(ctx context.Context, userID uint, role string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserRole{UserID: userID, Role: role}).Error
}

// RemoveRole revokes a role
func (r *userRepository) RemoveRole(ctx context.Context, userID uint, role string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND role = ?", userID, role).
		Delete(&models.UserRole{}).Error
}

// SetRoles replaces the role set of a user
func (r *userRepository) SetRoles(ctx context.Context, userID uint, roles []string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.UserRole{}).Error; err != nil {
		return err
	}
	for _, role := range roles {
		if err := r.AddRole(ctx, userID, role); err != nil {
			return err
		}
	}
	return nil
}

// CountByRole counts users holding a role
func (r *userRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserRole{}).Where("role = ?", role).Count(&count).Error
	return count, err
}
