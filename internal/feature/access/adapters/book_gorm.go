// Package adapters provides repository and object-store implementations for the access feature.
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bookstore_backend/internal/feature/access/domain/entity"
	"bookstore_backend/internal/feature/access/usecase"
)

type bookGorm struct {
	db *gorm.DB
}

var _ usecase.BookRepository = (*bookGorm)(nil)

// NewBookGorm creates a new instance of bookGorm.
func NewBookGorm(db *gorm.DB) *bookGorm {
	return &bookGorm{db: db}
}

// FindByID returns usecase.ErrBookNotFound when no row matches.
func (r *bookGorm) FindByID(ctx context.Context, id uint) (*entity.Book, error) {
	var model BookModel
	err := r.db.WithContext(ctx).
		Select("id", "title", "author", "file_path").
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrBookNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}
