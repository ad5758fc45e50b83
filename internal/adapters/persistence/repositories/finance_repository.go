package repositories

import (
	"context"
	"time"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/core/domain"

	"gorm.io/gorm"
)

// EntryFilter narrows income/expense queries
type EntryFilter struct {
	Status       string
	AcademicYear string
	FromDate     *time.Time
	ToDate       *time.Time
	DocStatus    *int
}

// Submitted returns a filter on submitted entries
func Submitted() EntryFilter {
	s := domain.DocSubmitted
	return EntryFilter{DocStatus: &s}
}

func applyEntryFilter(q *gorm.DB, f EntryFilter) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AcademicYear != "" {
		q = q.Where("academic_year = ?", f.AcademicYear)
	}
	if f.FromDate != nil {
		q = q.Where("posting_date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("posting_date <= ?", *f.ToDate)
	}
	if f.DocStatus != nil {
		q = q.Where("docstatus = ?", *f.DocStatus)
	}
	return q
}

func sumAmount(ctx context.Context, db *gorm.DB, model interface{}, f EntryFilter) (float64, error) {
	var total float64
	err := applyEntryFilter(db.WithContext(ctx).Model(model), f).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func countEntries(ctx context.Context, db *gorm.DB, model interface{}, f EntryFilter) (int64, error) {
	var count int64
	err := applyEntryFilter(db.WithContext(ctx).Model(model), f).Count(&count).Error
	return count, err
}

// ============================================================
// Income
// ============================================================

// IncomeRepository persists income entries
type IncomeRepository struct {
	baseRepository[models.IncomeEntry]
}

// NewIncomeRepository creates a new income repository
func NewIncomeRepository(db *gorm.DB) *IncomeRepository {
	return &IncomeRepository{baseRepository[models.IncomeEntry]{db: db}}
}

// GetByName returns an entry by its reference name
func (r *IncomeRepository) GetByName(ctx context.Context, name string) (*models.IncomeEntry, error) {
	var entry models.IncomeEntry
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&entry).Error; err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

// List returns entries matching f, latest posting first
func (r *IncomeRepository) List(ctx context.Context, f EntryFilter) ([]models.IncomeEntry, error) {
	var entries []models.IncomeEntry
	err := applyEntryFilter(r.db.WithContext(ctx), f).
		Order("posting_date DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

// Sum adds up the amount of entries matching f
func (r *IncomeRepository) Sum(ctx context.Context, f EntryFilter) (float64, error) {
	return sumAmount(ctx, r.db, &models.IncomeEntry{}, f)
}

// CountWhere counts entries matching f
func (r *IncomeRepository) CountWhere(ctx context.Context, f EntryFilter) (int64, error) {
	return countEntries(ctx, r.db, &models.IncomeEntry{}, f)
}

// RecentSubmitted returns the latest submitted entries
func (r *IncomeRepository) RecentSubmitted(ctx context.Context, memberID uint, limit int) ([]models.IncomeEntry, error) {
	var entries []models.IncomeEntry
	q := r.db.WithContext(ctx).
		Where("docstatus = ?", domain.DocSubmitted).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if memberID != 0 {
		q = q.Where("member_id = ?", memberID)
	}
	err := q.Find(&entries).Error
	return entries, err
}

// ============================================================
// Expenses
// ============================================================

// ExpenseRepository persists expense entries
type ExpenseRepository struct {
	baseRepository[models.ExpenseEntry]
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{baseRepository[models.ExpenseEntry]{db: db}}
}

// GetByName returns an entry by its reference name
func (r *ExpenseRepository) GetByName(ctx context.Context, name string) (*models.ExpenseEntry, error) {
	var entry models.ExpenseEntry
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&entry).Error; err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

// List returns entries matching f, latest posting first
func (r *ExpenseRepository) List(ctx context.Context, f EntryFilter) ([]models.ExpenseEntry, error) {
	var entries []models.ExpenseEntry
	err := applyEntryFilter(r.db.WithContext(ctx), f).
		Order("posting_date DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

// Sum adds up the amount of entries matching f
func (r *ExpenseRepository) Sum(ctx context.Context, f EntryFilter) (float64, error) {
	return sumAmount(ctx, r.db, &models.ExpenseEntry{}, f)
}

// CountWhere counts entries matching f
func (r *ExpenseRepository) CountWhere(ctx context.Context, f EntryFilter) (int64, error) {
	return countEntries(ctx, r.db, &models.ExpenseEntry{}, f)
}

// ============================================================
// Payment methods
// ============================================================

// PaymentMethodRepository persists payment methods
type PaymentMethodRepository struct {
	baseRepository[models.PaymentMethod]
}

// NewPaymentMethodRepository creates a new payment method repository
func NewPaymentMethodRepository(db *gorm.DB) *PaymentMethodRepository {
	return &PaymentMethodRepository{baseRepository[models.PaymentMethod]{db: db}}
}

// List returns payment methods by name, optionally only enabled ones
func (r *PaymentMethodRepository) List(ctx context.Context, enabledOnly bool) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	q := r.db.WithContext(ctx).Order("method_name")
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	err := q.Find(&methods).Error
	return methods, err
}

// GetByName returns a method by its name
func (r *PaymentMethodRepository) GetByName(ctx context.Context, name string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).Where("method_name = ?", name).First(&method).Error; err != nil {
		return nil, notFound(err)
	}
	return &method, nil
}

// NameTaken reports whether another method already uses name
func (r *PaymentMethodRepository) NameTaken(ctx context.Context, excludeID uint, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PaymentMethod{}).
		Where("id <> ? AND method_name = ?", excludeID, name).
		Count(&count).Error
	return count > 0, err
}
