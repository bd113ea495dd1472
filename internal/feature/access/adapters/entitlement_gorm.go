package adapters

import (
	"context"

	"gorm.io/gorm"

	"bookstore_backend/internal/feature/access/usecase"
)

type entitlementGorm struct {
	db *gorm.DB
}

var _ usecase.EntitlementRepository = (*entitlementGorm)(nil)

// NewEntitlementGorm creates a new instance of entitlementGorm.
func NewEntitlementGorm(db *gorm.DB) *entitlementGorm {
	return &entitlementGorm{db: db}
}

// HasPurchased reports whether any of the user's orders contains the book.
// Order status is not inspected: orders are only written once payment succeeded.
func (r *entitlementGorm) HasPurchased(ctx context.Context, userID, bookID uint) (bool, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&OrderItemModel{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND order_items.book_id = ?", userID, bookID).
		Limit(1).
		Pluck("order_items.id", &ids).Error
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}
