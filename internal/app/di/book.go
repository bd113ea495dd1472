// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	accessadapters "bookstore_backend/internal/feature/access/adapters"
	accessusecase "bookstore_backend/internal/feature/access/usecase"
	"bookstore_backend/internal/platform/cache"
)

// NewBookRepository creates a BookRepository implementation.
// If Redis is available, the GORM repository is wrapped in a read-through cache.
func NewBookRepository(rdb *redis.Client, db *gorm.DB, ttl time.Duration) accessusecase.BookRepository {
	repo := accessadapters.NewBookGorm(db)
	if rdb == nil {
		return repo
	}
	return cache.NewCachingBookRepository(rdb, ttl, repo, "books")
}
