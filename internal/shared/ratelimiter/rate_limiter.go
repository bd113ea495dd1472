// Package ratelimiter はキー（ユーザーID等）ごとのレート制限を提供します。
package ratelimiter

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config はレート制限の設定を保持します。
type Config struct {
	PerMinute       int           // 1分あたりの補充トークン数
	Burst           int           // バーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はキーごとのトークンバケットを管理します。
type RateLimiter struct {
	limit     rate.Limit
	perMinute int
	burst     int
	cleanup   time.Duration

	mu       sync.Mutex
	limiters map[string]*entry

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成し、バックグラウンドのクリーンアップを開始します。
// 値が0以下の設定項目には既定値を使います。
func NewRateLimiter(cfg Config) *RateLimiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 30
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.PerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	rl := &RateLimiter{
		limit:     rate.Limit(float64(cfg.PerMinute) / 60.0),
		perMinute: cfg.PerMinute,
		burst:     cfg.Burst,
		cleanup:   cfg.CleanupInterval,
		limiters:  make(map[string]*entry),
		stopCh:    make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop はクリーンアップのゴルーチンを停止します。複数回呼んでも安全です。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow はkeyに対してリクエストを1件消費できるかを返します。
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	e, ok := rl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = e
	}
	e.lastAccess = time.Now()
	rl.mu.Unlock()

	return e.limiter.Allow()
}

// Len は管理中のエントリ数を返します。テスト用。
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Middleware はkeyFnで得たキーごとに制限するginミドルウェアを返します。
// キーが取れないリクエストは制限せずに通します（認証ミドルウェアの後に配置）。
func (rl *RateLimiter) Middleware(keyFn func(c *gin.Context) (string, bool), log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := keyFn(c)
		if !ok {
			c.Next()
			return
		}
		if !rl.Allow(key) {
			log.Warn("rate limit exceeded", zap.String("key", key), zap.String("path", c.FullPath()))
			c.Header("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"code": "RATE_LIMITED", "error": "too many requests"})
			return
		}
		c.Next()
	}
}

// retryAfterSeconds は1トークンが補充されるまでの秒数です。
func (rl *RateLimiter) retryAfterSeconds() int {
	secs := int(math.Ceil(60.0 / float64(rl.perMinute)))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// evictIdle は最終アクセスからクリーンアップ間隔の2倍を超えたエントリを削除します。
func (rl *RateLimiter) evictIdle(now time.Time) {
	ttl := rl.cleanup * 2

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, e := range rl.limiters {
		if now.Sub(e.lastAccess) > ttl {
			delete(rl.limiters, key)
		}
	}
}
