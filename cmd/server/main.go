package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookstore_backend/internal/app/di"
	"bookstore_backend/internal/app/router"
	accessadapters "bookstore_backend/internal/feature/access/adapters"
	accesshandler "bookstore_backend/internal/feature/access/transport/handler"
	accessusecase "bookstore_backend/internal/feature/access/usecase"
	authadapters "bookstore_backend/internal/feature/auth/adapters"
	authhandler "bookstore_backend/internal/feature/auth/transport/handler"
	authusecase "bookstore_backend/internal/feature/auth/usecase"
	deviceadapters "bookstore_backend/internal/feature/device/adapters"
	devicehandler "bookstore_backend/internal/feature/device/transport/handler"
	deviceusecase "bookstore_backend/internal/feature/device/usecase"
	"bookstore_backend/internal/platform/config"
	infradb "bookstore_backend/internal/platform/db"
	platformhandler "bookstore_backend/internal/platform/http/handler"
	jwtmw "bookstore_backend/internal/platform/jwt"
	"bookstore_backend/internal/platform/logger"
	infraredis "bookstore_backend/internal/platform/redis"
	"bookstore_backend/internal/shared/ratelimiter"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Path: cfg.App.LogPath})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	db, err := infradb.OpenDB(cfg.DB, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	// Redis（任意）
	rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn("Redis unavailable. Running without cache.", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error("failed to close Redis client", zap.Error(err))
			}
		}()
	}

	signer, err := di.NewObjectSigner(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = signer.Close() }()

	// Repository
	userRepo := authadapters.NewUserGorm(db)
	deviceStore := deviceadapters.NewDeviceGorm(db)
	bookRepo := di.NewBookRepository(rdb, db, cfg.Redis.BookTTL)
	entitlementRepo := accessadapters.NewEntitlementGorm(db)

	// Usecase
	tokens := jwtmw.NewGenerator(cfg.JWT.Secret, cfg.JWT.Expiration)
	authUC := authusecase.NewAuthUsecase(userRepo, tokens)
	ledger := deviceusecase.NewLedger(deviceStore, cfg.Access.DeviceLimit, log)
	accessUC := accessusecase.NewAccessUsecase(ledger, entitlementRepo, bookRepo, signer, log)

	// Handler
	handlers := router.Handlers{
		Auth: authhandler.NewAuthHandler(authUC, authhandler.CookieConfig{
			Name:   cfg.JWT.CookieName,
			MaxAge: cfg.JWT.Expiration,
			Secure: cfg.App.IsProduction(),
		}, log),
		Access: accesshandler.NewAccessHandler(accessUC, log),
		Device: devicehandler.NewDeviceHandler(ledger, log),
		Health: platformhandler.NewHealthHandler(sqlDB, log),
	}

	limiter := ratelimiter.NewRateLimiter(ratelimiter.Config{
		PerMinute: cfg.Access.RatePerMinute,
		Burst:     cfg.Access.RateBurst,
	})
	defer limiter.Stop()
	accessLimit := limiter.Middleware(func(c *gin.Context) (string, bool) {
		id, ok := jwtmw.IdentityFrom(c)
		if !ok {
			return "", false
		}
		return strconv.FormatUint(uint64(id.UserID), 10), true
	}, log)

	authRequired := jwtmw.AuthRequired(jwtmw.NewResolver(cfg.JWT.Secret), cfg.JWT.CookieName, log)
	engine := router.NewRouter(handlers, authRequired, accessLimit, log)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}
