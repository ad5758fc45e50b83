package repositories

import (
	"context"
	"errors"

	"unem-umt/internal/core/domain"

	"gorm.io/gorm"
)

// Repository is the typed load/save/delete contract shared by every record
type Repository[T any] interface {
	GetByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uint) error
}

// baseRepository implements Repository over gorm
type baseRepository[T any] struct {
	db *gorm.DB
}

// GetByID loads a record, mapping a missing row to domain.ErrNotFound
func (r *baseRepository[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &entity, nil
}

// Save inserts a new record or updates every column of an existing one
func (r *baseRepository[T]) Save(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

// Delete removes a record by primary key
func (r *baseRepository[T]) Delete(ctx context.Context, id uint) error {
	var entity T
	return r.db.WithContext(ctx).Delete(&entity, id).Error
}

// Count returns the number of rows of T
func (r *baseRepository[T]) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).Count(&count).Error
	return count, err
}

// notFound maps gorm.ErrRecordNotFound to domain.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
