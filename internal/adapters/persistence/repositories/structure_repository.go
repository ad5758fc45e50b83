package repositories

import (
	"context"
	"errors"
	"time"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Academic years
// ============================================================

// AcademicYearRepository persists academic years
type AcademicYearRepository struct {
	baseRepository[models.AcademicYear]
}

// NewAcademicYearRepository creates a new academic year repository
func NewAcademicYearRepository(db *gorm.DB) *AcademicYearRepository {
	return &AcademicYearRepository{baseRepository[models.AcademicYear]{db: db}}
}

// List returns all years, latest start first
func (r *AcademicYearRepository) List(ctx context.Context) ([]models.AcademicYear, error) {
	var years []models.AcademicYear
	err := r.db.WithContext(ctx).Order("start_date DESC").Find(&years).Error
	return years, err
}

// GetByName returns the year with the given name
func (r *AcademicYearRepository) GetByName(ctx context.Context, name string) (*models.AcademicYear, error) {
	var year models.AcademicYear
	if err := r.db.WithContext(ctx).Where("year_name = ?", name).First(&year).Error; err != nil {
		return nil, notFound(err)
	}
	return &year, nil
}

// FindOverlapping returns other years whose closed date range intersects [start, end]
func (r *AcademicYearRepository) FindOverlapping(ctx context.Context, excludeID uint, start, end time.Time) ([]models.AcademicYear, error) {
	var years []models.AcademicYear
	err := r.db.WithContext(ctx).
		Where("id <> ? AND start_date <= ? AND end_date >= ?", excludeID, end, start).
		Order("start_date").
		Find(&years).Error
	return years, err
}

// DeactivateOthers clears is_active on every year except keepID
func (r *AcademicYearRepository) DeactivateOthers(ctx context.Context, keepID uint) error {
	return r.db.WithContext(ctx).Model(&models.AcademicYear{}).
		Where("id <> ? AND is_active = ?", keepID, true).
		Update("is_active", false).Error
}

// Active returns the active year
func (r *AcademicYearRepository) Active(ctx context.Context) (*models.AcademicYear, error) {
	var year models.AcademicYear
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&year).Error; err != nil {
		return nil, notFound(err)
	}
	return &year, nil
}

// CountActive counts active years
func (r *AcademicYearRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AcademicYear{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}

// ============================================================
// UNEM structure
// ============================================================

// UNEMStructureRepository persists UNEM mandates
type UNEMStructureRepository struct {
	baseRepository[models.UNEMStructure]
}

// NewUNEMStructureRepository creates a new UNEM structure repository
func NewUNEMStructureRepository(db *gorm.DB) *UNEMStructureRepository {
	return &UNEMStructureRepository{baseRepository[models.UNEMStructure]{db: db}}
}

// List returns mandates with their member, optionally only active ones
func (r *UNEMStructureRepository) List(ctx context.Context, activeOnly bool) ([]models.UNEMStructure, error) {
	var rows []models.UNEMStructure
	q := r.db.WithContext(ctx).Preload("Member").Order("start_date DESC, id DESC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&rows).Error
	return rows, err
}

// ListActiveEndedBefore returns active mandates whose end date has passed
func (r *UNEMStructureRepository) ListActiveEndedBefore(ctx context.Context, day time.Time) ([]models.UNEMStructure, error) {
	var rows []models.UNEMStructure
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND end_date IS NOT NULL AND end_date < ?", true, day).
		Find(&rows).Error
	return rows, err
}

// ============================================================
// Mutual structure
// ============================================================

// MutualStructureRepository persists mutual mandates
type MutualStructureRepository struct {
	baseRepository[models.MutualStructure]
}

// NewMutualStructureRepository creates a new mutual structure repository
func NewMutualStructureRepository(db *gorm.DB) *MutualStructureRepository {
	return &MutualStructureRepository{baseRepository[models.MutualStructure]{db: db}}
}

// List returns mandates with their member, optionally only active ones
func (r *MutualStructureRepository) List(ctx context.Context, activeOnly bool) ([]models.MutualStructure, error) {
	var rows []models.MutualStructure
	q := r.db.WithContext(ctx).Preload("Member").Order("mandate_start_date DESC, id DESC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&rows).Error
	return rows, err
}

// MandateNumberTaken reports whether another record of the same position
// type already uses the mandate number
func (r *MutualStructureRepository) MandateNumberTaken(ctx context.Context, excludeID uint, positionType, mandateNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MutualStructure{}).
		Where("id <> ? AND position_type = ? AND mandate_number = ?", excludeID, positionType, mandateNumber).
		Count(&count).Error
	return count > 0, err
}

// ListActiveEndedBefore returns active mandates whose end date has passed
func (r *MutualStructureRepository) ListActiveEndedBefore(ctx context.Context, day time.Time) ([]models.MutualStructure, error) {
	var rows []models.MutualStructure
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND mandate_end_date IS NOT NULL AND mandate_end_date < ?", true, day).
		Find(&rows).Error
	return rows, err
}

// ============================================================
// Provinces
// ============================================================

// ProvinceRepository persists provinces
type ProvinceRepository struct {
	baseRepository[models.Province]
}

// NewProvinceRepository creates a new province repository
func NewProvinceRepository(db *gorm.DB) *ProvinceRepository {
	return &ProvinceRepository{baseRepository[models.Province]{db: db}}
}

// List returns provinces ordered by name
func (r *ProvinceRepository) List(ctx context.Context) ([]models.Province, error) {
	var provinces []models.Province
	err := r.db.WithContext(ctx).Order("name").Find(&provinces).Error
	return provinces, err
}

// GetByName returns a province by its name
func (r *ProvinceRepository) GetByName(ctx context.Context, name string) (*models.Province, error) {
	var province models.Province
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&province).Error; err != nil {
		return nil, notFound(err)
	}
	return &province, nil
}

// CodeFor returns the two-digit code of a province, "00" when unknown
func (r *ProvinceRepository) CodeFor(ctx context.Context, name string) (string, error) {
	province, err := r.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "00", nil
		}
		return "", err
	}
	if province.Code == "" {
		return "00", nil
	}
	return province.Code, nil
}

// DeleteByName removes a province
func (r *ProvinceRepository) DeleteByName(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).Where("name = ?", name).Delete(&models.Province{}).Error
}

// ============================================================
// Organization units
// ============================================================

// OrganizationUnitRepository persists the organization tree
type OrganizationUnitRepository struct {
	baseRepository[models.OrganizationUnit]
}

// NewOrganizationUnitRepository creates a new organization unit repository
func NewOrganizationUnitRepository(db *gorm.DB) *OrganizationUnitRepository {
	return &OrganizationUnitRepository{baseRepository[models.OrganizationUnit]{db: db}}
}

// ListAll returns every unit in creation order
func (r *OrganizationUnitRepository) ListAll(ctx context.Context) ([]models.OrganizationUnit, error) {
	var units []models.OrganizationUnit
	err := r.db.WithContext(ctx).Order("created_at, id").Find(&units).Error
	return units, err
}

// ListByTypes returns units of the given types
func (r *OrganizationUnitRepository) ListByTypes(ctx context.Context, types ...string) ([]models.OrganizationUnit, error) {
	var units []models.OrganizationUnit
	err := r.db.WithContext(ctx).Where("type IN ?", types).Order("title").Find(&units).Error
	return units, err
}

// CountByType counts units of a type, optionally filtered by status
func (r *OrganizationUnitRepository) CountByType(ctx context.Context, unitType, status string) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.OrganizationUnit{}).Where("type = ?", unitType)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&count).Error
	return count, err
}

// CountOfficesByProvince returns office counts keyed by province
func (r *OrganizationUnitRepository) CountOfficesByProvince(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Province string
		Count    int64
	}
	err := r.db.WithContext(ctx).Model(&models.OrganizationUnit{}).
		Select("province, COUNT(*) AS count").
		Where("type = ?", domain.UnitOffice).
		Group("province").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Province] = row.Count
	}
	return counts, nil
}
