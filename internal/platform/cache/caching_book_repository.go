// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"bookstore_backend/internal/feature/access/domain/entity"
	"bookstore_backend/internal/feature/access/usecase"
)

// CachingBookRepository decorates a BookRepository with a Redis read-through cache.
// Only found books are cached; misses always reach the inner repository.
// A cleared or replaced file path is served from cache until the entry expires.
type CachingBookRepository struct {
	inner     usecase.BookRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.BookRepository = (*CachingBookRepository)(nil)

// NewCachingBookRepository decorates inner with Redis caching.
// If ttl is 0, it defaults to 1 minute. If namespace is empty, it uses "books".
// A nil rdb disables caching.
func NewCachingBookRepository(rdb *redis.Client, ttl time.Duration, inner usecase.BookRepository, namespace string) *CachingBookRepository {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if namespace == "" {
		namespace = "books"
	}
	return &CachingBookRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// FindByID checks the cache first then falls back to the inner repository.
// Cache failures are never surfaced to the caller.
func (c *CachingBookRepository) FindByID(ctx context.Context, id uint) (*entity.Book, error) {
	if c.rdb == nil {
		return c.inner.FindByID(ctx, id)
	}

	key := c.cacheKey(id)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.Book
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		// corrupted entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

func (c *CachingBookRepository) cacheKey(id uint) string {
	return c.namespace + ":" + strconv.FormatUint(uint64(id), 10)
}
