package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bookstore_backend/internal/feature/device/domain/entity"
	"bookstore_backend/internal/feature/device/usecase"
)

// setupDeviceTestDB prepares an in-memory SQLite database for device testing.
func setupDeviceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to initialize test database")

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&DeviceModel{})
	require.NoError(t, err, "failed to migrate table")

	return db
}

// seedDevice creates a test binding in the database.
func seedDevice(t *testing.T, db *gorm.DB, deviceID string, userID uint, createdAt time.Time) *entity.Device {
	t.Helper()

	model := &DeviceModel{DeviceID: deviceID, UserID: userID, CreatedAt: createdAt}
	require.NoError(t, db.Create(model).Error, "failed to seed device")
	return model.ToEntity()
}

func TestNewDeviceGorm(t *testing.T) {
	db := setupDeviceTestDB(t)

	repo := NewDeviceGorm(db)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
}

func TestDeviceGorm_Create(t *testing.T) {
	t.Parallel()

	t.Run("success: assigns id", func(t *testing.T) {
		t.Parallel()

		db := setupDeviceTestDB(t)
		repo := NewDeviceGorm(db)

		d := &entity.Device{DeviceID: "dev-a", UserID: 1, CreatedAt: time.Now()}
		require.NoError(t, repo.Create(context.Background(), d))
		assert.NotZero(t, d.ID)

		var found DeviceModel
		require.NoError(t, db.Where("device_id = ?", "dev-a").First(&found).Error)
		assert.Equal(t, uint(1), found.UserID)
	})

	t.Run("failure: duplicate device id", func(t *testing.T) {
		t.Parallel()

		db := setupDeviceTestDB(t)
		repo := NewDeviceGorm(db)
		seedDevice(t, db, "dev-a", 1, time.Now())

		err := repo.Create(context.Background(), &entity.Device{DeviceID: "dev-a", UserID: 2, CreatedAt: time.Now()})
		assert.ErrorIs(t, err, usecase.ErrDuplicateDevice)
	})
}

func TestDeviceGorm_FindByDeviceID(t *testing.T) {
	t.Parallel()

	db := setupDeviceTestDB(t)
	repo := NewDeviceGorm(db)
	seedDevice(t, db, "dev-a", 7, time.Now())

	got, err := repo.FindByDeviceID(context.Background(), "dev-a")
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.UserID)

	_, err = repo.FindByDeviceID(context.Background(), "missing")
	assert.ErrorIs(t, err, usecase.ErrDeviceNotFound)
}

func TestDeviceGorm_CountAndList(t *testing.T) {
	t.Parallel()

	db := setupDeviceTestDB(t)
	repo := NewDeviceGorm(db)

	base := time.Now().Add(-time.Hour)
	seedDevice(t, db, "dev-2", 1, base.Add(2*time.Minute))
	seedDevice(t, db, "dev-1", 1, base.Add(time.Minute))
	seedDevice(t, db, "dev-x", 2, base)

	count, err := repo.CountByUserID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	list, err := repo.ListByUserID(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "dev-1", list[0].DeviceID)
	assert.Equal(t, "dev-2", list[1].DeviceID)
}

func TestDeviceGorm_FindOldestByUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(t *testing.T, db *gorm.DB)
		wantID  string
		wantErr error
		userID  uint
	}{
		{
			name: "earliest created_at wins",
			setup: func(t *testing.T, db *gorm.DB) {
				now := time.Now()
				seedDevice(t, db, "newer", 1, now)
				seedDevice(t, db, "older", 1, now.Add(-time.Hour))
			},
			userID: 1,
			wantID: "older",
		},
		{
			name: "identical timestamps fall back to id order",
			setup: func(t *testing.T, db *gorm.DB) {
				same := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
				seedDevice(t, db, "first-inserted", 1, same)
				seedDevice(t, db, "second-inserted", 1, same)
			},
			userID: 1,
			wantID: "first-inserted",
		},
		{
			name:    "no bindings",
			setup:   func(t *testing.T, db *gorm.DB) {},
			userID:  1,
			wantErr: usecase.ErrDeviceNotFound,
		},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupDeviceTestDB(t)
			repo := NewDeviceGorm(db)
			tt.setup(t, db)

			got, err := repo.FindOldestByUserID(context.Background(), tt.userID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.DeviceID)
		})
	}
}

func TestDeviceGorm_DeleteByDeviceID(t *testing.T) {
	t.Parallel()

	db := setupDeviceTestDB(t)
	repo := NewDeviceGorm(db)
	seedDevice(t, db, "dev-a", 1, time.Now())

	require.NoError(t, repo.DeleteByDeviceID(context.Background(), "dev-a"))

	var count int64
	db.Model(&DeviceModel{}).Count(&count)
	assert.Equal(t, int64(0), count)

	err := repo.DeleteByDeviceID(context.Background(), "dev-a")
	assert.ErrorIs(t, err, usecase.ErrDeviceNotFound)
}

func TestDeviceGorm_WithUserLock(t *testing.T) {
	t.Parallel()

	t.Run("commit on success", func(t *testing.T) {
		t.Parallel()

		db := setupDeviceTestDB(t)
		store := NewDeviceGorm(db)

		err := store.WithUserLock(context.Background(), 1, func(repo usecase.DeviceRepository) error {
			return repo.Create(context.Background(), &entity.Device{DeviceID: "dev-a", UserID: 1, CreatedAt: time.Now()})
		})
		require.NoError(t, err)

		count, _ := store.CountByUserID(context.Background(), 1)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rollback on error", func(t *testing.T) {
		t.Parallel()

		db := setupDeviceTestDB(t)
		store := NewDeviceGorm(db)
		boom := errors.New("boom")

		err := store.WithUserLock(context.Background(), 1, func(repo usecase.DeviceRepository) error {
			if err := repo.Create(context.Background(), &entity.Device{DeviceID: "dev-a", UserID: 1, CreatedAt: time.Now()}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		count, _ := store.CountByUserID(context.Background(), 1)
		assert.Equal(t, int64(0), count)
	})
}

func TestLedgerLockKey(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, ledgerLockKey(1), ledgerLockKey(2))
	assert.Equal(t, ledgerLockNamespace, ledgerLockKey(0)>>32)
	assert.Positive(t, ledgerLockKey(^uint(0)))
}
