// Package usecase implements the device binding ledger.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bookstore_backend/internal/feature/device/domain/entity"
)

const (
	// DefaultDeviceLimit is the number of devices a user may bind concurrently.
	DefaultDeviceLimit = 3

	// maxRegisterAttempts bounds retries after a unique-index race on the device id.
	maxRegisterAttempts = 3
)

// Binding is the outcome of a successful ResolveOrRegister.
type Binding struct {
	Device  *entity.Device
	Created bool
}

// Ledger enforces the per-user device cap and the one-user-per-device rule.
type Ledger struct {
	store DeviceStore
	limit int
	now   func() time.Time
	log   *zap.Logger
}

// NewLedger creates a Ledger. A non-positive limit falls back to DefaultDeviceLimit.
func NewLedger(store DeviceStore, limit int, log *zap.Logger) *Ledger {
	if limit <= 0 {
		limit = DefaultDeviceLimit
	}
	return &Ledger{
		store: store,
		limit: limit,
		now:   time.Now,
		log:   log,
	}
}

// Limit returns the configured device cap.
func (l *Ledger) Limit() int {
	return l.limit
}

// ResolveOrRegister binds deviceID to userID if allowed.
//
//   - bound to the same user: success, nothing written
//   - bound to another user: ErrDeviceConflict, nothing written
//   - unknown and under the cap: a binding is created
//   - unknown and at the cap: *CapExceededError naming the oldest binding
func (l *Ledger) ResolveOrRegister(ctx context.Context, userID uint, deviceID string) (Binding, error) {
	if deviceID == "" {
		return Binding{}, ErrDeviceIDRequired
	}

	var lastErr error
	for attempt := 0; attempt < maxRegisterAttempts; attempt++ {
		binding, err := l.resolveOrRegisterOnce(ctx, userID, deviceID)
		if !errors.Is(err, ErrDuplicateDevice) {
			return binding, err
		}
		// Another request inserted the same device id between our lookup and insert.
		// The next attempt observes the winning row.
		lastErr = err
	}
	return Binding{}, fmt.Errorf("register device after %d attempts: %w", maxRegisterAttempts, lastErr)
}

func (l *Ledger) resolveOrRegisterOnce(ctx context.Context, userID uint, deviceID string) (Binding, error) {
	var out Binding
	err := l.store.WithUserLock(ctx, userID, func(repo DeviceRepository) error {
		existing, err := repo.FindByDeviceID(ctx, deviceID)
		switch {
		case err == nil:
			if existing.UserID != userID {
				return ErrDeviceConflict
			}
			out = Binding{Device: existing}
			return nil
		case !errors.Is(err, ErrDeviceNotFound):
			return fmt.Errorf("find device: %w", err)
		}

		count, err := repo.CountByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("count devices: %w", err)
		}
		if count >= int64(l.limit) {
			oldest, err := repo.FindOldestByUserID(ctx, userID)
			if err != nil {
				return fmt.Errorf("find oldest device: %w", err)
			}
			return &CapExceededError{Limit: l.limit, OldestDeviceID: oldest.DeviceID}
		}

		device := &entity.Device{
			DeviceID:  deviceID,
			UserID:    userID,
			CreatedAt: l.now(),
		}
		if err := repo.Create(ctx, device); err != nil {
			return err
		}
		out = Binding{Device: device, Created: true}
		return nil
	})
	if err != nil {
		return Binding{}, err
	}
	return out, nil
}

// EvictOldest removes the user's oldest binding and returns its device id.
// It returns ErrDeviceNotFound when the user has no bindings.
func (l *Ledger) EvictOldest(ctx context.Context, userID uint) (string, error) {
	var evicted string
	err := l.store.WithUserLock(ctx, userID, func(repo DeviceRepository) error {
		oldest, err := repo.FindOldestByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if err := repo.DeleteByDeviceID(ctx, oldest.DeviceID); err != nil {
			return err
		}
		evicted = oldest.DeviceID
		return nil
	})
	if err != nil {
		return "", err
	}
	return evicted, nil
}

// RegisterWithEviction is the confirmed-eviction path: it evicts the oldest
// binding and then registers deviceID. A failed eviction is logged and the
// registration is still attempted.
func (l *Ledger) RegisterWithEviction(ctx context.Context, userID uint, deviceID string) (Binding, error) {
	if deviceID == "" {
		return Binding{}, ErrDeviceIDRequired
	}

	evicted, err := l.EvictOldest(ctx, userID)
	if err != nil {
		l.log.Warn("device eviction failed, continuing with registration",
			zap.Uint("user_id", userID),
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
	} else {
		l.log.Info("evicted oldest device",
			zap.Uint("user_id", userID),
			zap.String("evicted_device_id", evicted),
			zap.String("device_id", deviceID),
		)
	}

	return l.ResolveOrRegister(ctx, userID, deviceID)
}

// ListDevices returns the user's bindings oldest first.
func (l *Ledger) ListDevices(ctx context.Context, userID uint) ([]*entity.Device, error) {
	return l.store.ListByUserID(ctx, userID)
}

// RemoveDevice deletes a binding by device id (administrative action).
func (l *Ledger) RemoveDevice(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return ErrDeviceIDRequired
	}
	return l.store.DeleteByDeviceID(ctx, deviceID)
}
