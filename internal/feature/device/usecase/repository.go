package usecase

import (
	"context"

	"bookstore_backend/internal/feature/device/domain/entity"
)

// DeviceRepository abstracts the persistence of device bindings.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type DeviceRepository interface {
	// FindByDeviceID returns the binding for deviceID or ErrDeviceNotFound.
	FindByDeviceID(ctx context.Context, deviceID string) (*entity.Device, error)

	// ListByUserID returns a user's bindings ordered oldest first.
	ListByUserID(ctx context.Context, userID uint) ([]*entity.Device, error)

	// CountByUserID returns the number of bindings for a user.
	CountByUserID(ctx context.Context, userID uint) (int64, error)

	// FindOldestByUserID returns the binding with the earliest creation time,
	// ties broken by id, or ErrDeviceNotFound.
	FindOldestByUserID(ctx context.Context, userID uint) (*entity.Device, error)

	// Create inserts a binding. It returns ErrDuplicateDevice when the device id is taken.
	Create(ctx context.Context, device *entity.Device) error

	// DeleteByDeviceID removes a binding or returns ErrDeviceNotFound.
	DeleteByDeviceID(ctx context.Context, deviceID string) error
}

// DeviceStore runs ledger steps atomically.
type DeviceStore interface {
	DeviceRepository

	// WithUserLock runs fn in a transaction that holds an exclusive per-user lock,
	// so count-then-insert sequences for the same user never interleave.
	WithUserLock(ctx context.Context, userID uint, fn func(repo DeviceRepository) error) error
}
