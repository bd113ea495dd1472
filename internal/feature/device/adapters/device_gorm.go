// Package adapters provides repository implementations for the device feature.
package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"bookstore_backend/internal/feature/device/domain/entity"
	"bookstore_backend/internal/feature/device/usecase"
)

// ledgerLockNamespace occupies the high 32 bits of the advisory lock key so
// device ledger locks never collide with other advisory locks in the database.
const ledgerLockNamespace int64 = 0x4445_5643 // "DEVC"

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// deviceGorm is a GORM implementation of usecase.DeviceStore.
type deviceGorm struct {
	db *gorm.DB
}

// Compile-time check to ensure deviceGorm implements DeviceStore.
var _ usecase.DeviceStore = (*deviceGorm)(nil)

// NewDeviceGorm creates a new instance of deviceGorm.
func NewDeviceGorm(db *gorm.DB) *deviceGorm {
	return &deviceGorm{db: db}
}

// WithUserLock runs fn inside a transaction. On PostgreSQL the transaction
// first takes a transaction-scoped advisory lock keyed on the user id; the lock
// is released on commit or rollback. Other dialects rely on the database's own
// write serialization.
func (r *deviceGorm) WithUserLock(ctx context.Context, userID uint, fn func(repo usecase.DeviceRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", ledgerLockKey(userID)).Error; err != nil {
				return fmt.Errorf("acquire device ledger lock: %w", err)
			}
		}
		return fn(&deviceGorm{db: tx})
	})
}

func ledgerLockKey(userID uint) int64 {
	return ledgerLockNamespace<<32 | int64(uint32(userID))
}

// FindByDeviceID retrieves the binding for a device id.
func (r *deviceGorm) FindByDeviceID(ctx context.Context, deviceID string) (*entity.Device, error) {
	var model DeviceModel
	if err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrDeviceNotFound
		}
		return nil, err
	}
	return model.ToEntity(), nil
}

// ListByUserID retrieves a user's bindings, oldest first.
func (r *deviceGorm) ListByUserID(ctx context.Context, userID uint) ([]*entity.Device, error) {
	var models []DeviceModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	devices := make([]*entity.Device, len(models))
	for i := range models {
		devices[i] = models[i].ToEntity()
	}
	return devices, nil
}

// CountByUserID returns the number of bindings for a user.
func (r *deviceGorm) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&DeviceModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// FindOldestByUserID returns the earliest binding, ties broken by id.
func (r *deviceGorm) FindOldestByUserID(ctx context.Context, userID uint) (*entity.Device, error) {
	var oldest DeviceModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Take(&oldest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrDeviceNotFound
		}
		return nil, err
	}
	return oldest.ToEntity(), nil
}

// Create inserts a new binding and fills in the generated id.
func (r *deviceGorm) Create(ctx context.Context, device *entity.Device) error {
	model := DeviceModelFromEntity(device)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return usecase.ErrDuplicateDevice
		}
		return err
	}
	device.ID = model.ID
	device.CreatedAt = model.CreatedAt
	return nil
}

// DeleteByDeviceID removes a binding.
func (r *deviceGorm) DeleteByDeviceID(ctx context.Context, deviceID string) error {
	result := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Delete(&DeviceModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrDeviceNotFound
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
