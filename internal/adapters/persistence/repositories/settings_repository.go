package repositories

import (
	"context"
	"errors"

	"unem-umt/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// singleID is the primary key of single-row settings tables
const singleID = 1

// SettingsRepository persists the single-row settings tables and system defaults
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// loadSingle reads row 1 into dest, creating it from defaults when missing
func (r *SettingsRepository) loadSingle(ctx context.Context, dest interface{}) error {
	return r.db.WithContext(ctx).
		Where("id = ?", singleID).
		FirstOrCreate(dest).Error
}

// System returns the system settings row
func (r *SettingsRepository) System(ctx context.Context) (*models.SystemSettings, error) {
	s := models.SystemSettings{ID: singleID, Language: "ar", SessionExpiry: 360}
	if err := r.loadSingle(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSystem writes the system settings row
func (r *SettingsRepository) SaveSystem(ctx context.Context, s *models.SystemSettings) error {
	s.ID = singleID
	return r.db.WithContext(ctx).Save(s).Error
}

// Email returns the SMTP settings row
func (r *SettingsRepository) Email(ctx context.Context) (*models.EmailSettings, error) {
	s := models.EmailSettings{ID: singleID, SMTPPort: 587}
	if err := r.loadSingle(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveEmail writes the SMTP settings row
func (r *SettingsRepository) SaveEmail(ctx context.Context, s *models.EmailSettings) error {
	s.ID = singleID
	return r.db.WithContext(ctx).Save(s).Error
}

// Notifications returns the notification settings row
func (r *SettingsRepository) Notifications(ctx context.Context) (*models.NotificationSettings, error) {
	s := models.NotificationSettings{
		ID:                     singleID,
		EnableMembershipExpiry: true,
		EnableNewMember:        true,
		EnablePaymentReceived:  true,
	}
	if err := r.loadSingle(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveNotifications writes the notification settings row
func (r *SettingsRepository) SaveNotifications(ctx context.Context, s *models.NotificationSettings) error {
	s.ID = singleID
	return r.db.WithContext(ctx).Save(s).Error
}

// GetDefault returns a system default, empty when unset
func (r *SettingsRepository) GetDefault(ctx context.Context, key string) (string, error) {
	var d models.SystemDefault
	err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return d.Value, nil
}

// SetDefault upserts a system default
func (r *SettingsRepository) SetDefault(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&models.SystemDefault{Key: key, Value: value}).Error
}

// ============================================================
// Error log
// ============================================================

// ErrorLogRepository persists error log entries
type ErrorLogRepository struct {
	baseRepository[models.ErrorLog]
}

// NewErrorLogRepository creates a new error log repository
func NewErrorLogRepository(db *gorm.DB) *ErrorLogRepository {
	return &ErrorLogRepository{baseRepository[models.ErrorLog]{db: db}}
}

// Recent returns the newest entries
func (r *ErrorLogRepository) Recent(ctx context.Context, limit int) ([]models.ErrorLog, error) {
	var logs []models.ErrorLog
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// ============================================================
// Roles and permissions
// ============================================================

// RoleRepository persists roles, their permissions and the permission catalog
type RoleRepository struct {
	baseRepository[models.Role]
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{baseRepository[models.Role]{db: db}}
}

// GetByName returns a role with its permissions
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Preload("Permissions").Where("name = ?", name).First(&role).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

// ListEnabled returns roles that are not disabled
func (r *RoleRepository) ListEnabled(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).Where("disabled = ?", false).Order("name").Find(&roles).Error
	return roles, err
}

// SaveWithPermissions saves a role and replaces its permission rows
func (r *RoleRepository) SaveWithPermissions(ctx context.Context, role *models.Role, permissions []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit("Permissions").Save(role).Error; err != nil {
		return err
	}
	if err := db.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
		return err
	}
	role.Permissions = role.Permissions[:0]
	for _, p := range permissions {
		rp := models.RolePermission{RoleID: role.ID, Permission: p}
		if err := db.Create(&rp).Error; err != nil {
			return err
		}
		role.Permissions = append(role.Permissions, rp)
	}
	return nil
}

// DeleteByName removes a role and its permission rows
func (r *RoleRepository) DeleteByName(ctx context.Context, name string) error {
	role, err := r.GetByName(ctx, name)
	if err != nil {
		return err
	}
	db := r.db.WithContext(ctx)
	if err := db.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Role{}, role.ID).Error
}

// EnsureRole creates a role when missing
func (r *RoleRepository) EnsureRole(ctx context.Context, name, description string) error {
	role := models.Role{Name: name, Description: description, DeskAccess: true}
	return r.db.WithContext(ctx).
		Where("name = ?", name).
		FirstOrCreate(&role).Error
}

// ListPermissions returns the enabled permission catalog
func (r *RoleRepository) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("name").Find(&perms).Error
	return perms, err
}

// EnsurePermission creates a catalog permission when missing
func (r *RoleRepository) EnsurePermission(ctx context.Context, name, description string) error {
	perm := models.Permission{Name: name, Description: description, Enabled: true}
	return r.db.WithContext(ctx).
		Where("name = ?", name).
		FirstOrCreate(&perm).Error
}
