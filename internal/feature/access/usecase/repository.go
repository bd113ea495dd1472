package usecase

import (
	"context"
	"time"

	"bookstore_backend/internal/feature/access/domain/entity"
)

// BookRepository loads book records. FindByID returns ErrBookNotFound when absent.
type BookRepository interface {
	FindByID(ctx context.Context, id uint) (*entity.Book, error)
}

// EntitlementRepository answers whether a user owns a book.
type EntitlementRepository interface {
	// HasPurchased reports whether any order item of the user's orders references bookID.
	HasPurchased(ctx context.Context, userID, bookID uint) (bool, error)
}

// ObjectSigner mints read-only URLs for stored objects.
// A path that names no object yields an error wrapping ErrAssetMissing.
type ObjectSigner interface {
	SignedURL(ctx context.Context, objectKey string, expires time.Time) (string, error)
}
