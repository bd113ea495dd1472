// Package db opens the PostgreSQL connection and applies schema migrations.
package db

import (
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	authentity "bookstore_backend/internal/feature/auth/domain/entity"
	accessadapters "bookstore_backend/internal/feature/access/adapters"
	deviceadapters "bookstore_backend/internal/feature/device/adapters"
	"bookstore_backend/internal/platform/config"
)

const retryInterval = 3 * time.Second

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN returns DatabaseURL when set, otherwise a postgres URL built from the discrete fields.
func BuildDSN(cfg config.DBConfig) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// PostgresOpener opens PostgreSQL through pgx with driver errors translated
// to gorm sentinels (gorm.ErrDuplicatedKey and friends).
func PostgresOpener(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

// ConnectWithRetry keeps calling open until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener, log *zap.Logger) (*gorm.DB, error) {
	return connectWithRetry(dsn, timeout, retryInterval, open, log)
}

func connectWithRetry(dsn string, timeout, interval time.Duration, open Opener, log *zap.Logger) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(interval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %d attempts: %w", attempt, err)
		}
		log.Warn("db connect failed, retrying", zap.Int("attempt", attempt), zap.Duration("retry_in", interval), zap.Error(err))
		time.Sleep(interval)
	}
}

// Migrate creates or updates the tables this service reads and writes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&authentity.User{},
		&deviceadapters.DeviceModel{},
		&accessadapters.BookModel{},
		&accessadapters.OrderModel{},
		&accessadapters.OrderItemModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// OpenDB connects to PostgreSQL and migrates when cfg.RunMigrations is set.
func OpenDB(cfg config.DBConfig, log *zap.Logger) (*gorm.DB, error) {
	timeout := cfg.ConnTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), timeout, PostgresOpener, log)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Info("database migrations applied")
	}
	return db, nil
}
