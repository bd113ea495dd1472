package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"bookstore_backend/internal/feature/device/domain/entity"
)

// memoryStore is an in-memory DeviceStore used to exercise the ledger rules.
type memoryStore struct {
	mu      sync.Mutex
	nextID  uint
	devices map[string]*entity.Device

	// Failure injection.
	deleteErr  error
	createHook func(d *entity.Device) error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{devices: map[string]*entity.Device{}}
}

func (s *memoryStore) seed(deviceID string, userID uint, createdAt time.Time) {
	s.nextID++
	s.devices[deviceID] = &entity.Device{ID: s.nextID, DeviceID: deviceID, UserID: userID, CreatedAt: createdAt}
}

func (s *memoryStore) WithUserLock(ctx context.Context, userID uint, fn func(repo DeviceRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

func (s *memoryStore) FindByDeviceID(ctx context.Context, deviceID string) (*entity.Device, error) {
	d, ok := s.devices[deviceID]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *memoryStore) ListByUserID(ctx context.Context, userID uint) ([]*entity.Device, error) {
	var out []*entity.Device
	for _, d := range s.devices {
		if d.UserID == userID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	list, _ := s.ListByUserID(ctx, userID)
	return int64(len(list)), nil
}

func (s *memoryStore) FindOldestByUserID(ctx context.Context, userID uint) (*entity.Device, error) {
	list, _ := s.ListByUserID(ctx, userID)
	if len(list) == 0 {
		return nil, ErrDeviceNotFound
	}
	return list[0], nil
}

func (s *memoryStore) Create(ctx context.Context, d *entity.Device) error {
	if s.createHook != nil {
		if err := s.createHook(d); err != nil {
			return err
		}
	}
	if _, ok := s.devices[d.DeviceID]; ok {
		return ErrDuplicateDevice
	}
	s.nextID++
	d.ID = s.nextID
	cp := *d
	s.devices[d.DeviceID] = &cp
	return nil
}

func (s *memoryStore) DeleteByDeviceID(ctx context.Context, deviceID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.devices[deviceID]; !ok {
		return ErrDeviceNotFound
	}
	delete(s.devices, deviceID)
	return nil
}

func (s *memoryStore) userDeviceIDs(userID uint) []string {
	list, _ := s.ListByUserID(context.Background(), userID)
	ids := make([]string, len(list))
	for i, d := range list {
		ids[i] = d.DeviceID
	}
	return ids
}

func TestNewLedger_DefaultLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultDeviceLimit, NewLedger(newMemoryStore(), 0, zap.NewNop()).Limit())
	assert.Equal(t, 5, NewLedger(newMemoryStore(), 5, zap.NewNop()).Limit())
}

func TestLedger_ResolveOrRegister(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		setup       func(s *memoryStore)
		userID      uint
		deviceID    string
		wantCreated bool
		wantErr     error
		wantOldest  string
		wantDevices []string
	}{
		{
			name:        "new device for new user is bound",
			setup:       func(s *memoryStore) {},
			userID:      1,
			deviceID:    "dev-new",
			wantCreated: true,
			wantDevices: []string{"dev-new"},
		},
		{
			name: "known device of the same user is a no-op",
			setup: func(s *memoryStore) {
				s.seed("dev-a", 1, base)
			},
			userID:      1,
			deviceID:    "dev-a",
			wantCreated: false,
			wantDevices: []string{"dev-a"},
		},
		{
			name: "device of another user conflicts",
			setup: func(s *memoryStore) {
				s.seed("dev-a", 2, base)
			},
			userID:      1,
			deviceID:    "dev-a",
			wantErr:     ErrDeviceConflict,
			wantDevices: nil,
		},
		{
			name: "third device fits under the cap",
			setup: func(s *memoryStore) {
				s.seed("dev-a", 1, base)
				s.seed("dev-b", 1, base.Add(time.Minute))
			},
			userID:      1,
			deviceID:    "dev-c",
			wantCreated: true,
			wantDevices: []string{"dev-a", "dev-b", "dev-c"},
		},
		{
			name: "fourth device exceeds the cap and names the oldest",
			setup: func(s *memoryStore) {
				s.seed("dev-b", 1, base.Add(time.Minute))
				s.seed("dev-a", 1, base)
				s.seed("dev-c", 1, base.Add(2*time.Minute))
			},
			userID:      1,
			deviceID:    "dev-d",
			wantErr:     ErrDeviceCapExceeded,
			wantOldest:  "dev-a",
			wantDevices: []string{"dev-a", "dev-b", "dev-c"},
		},
		{
			name:     "empty device id is rejected",
			setup:    func(s *memoryStore) {},
			userID:   1,
			deviceID: "",
			wantErr:  ErrDeviceIDRequired,
		},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemoryStore()
			tt.setup(store)
			ledger := NewLedger(store, 3, zap.NewNop())
			ledger.now = func() time.Time { return base.Add(time.Hour) }

			b, err := ledger.ResolveOrRegister(context.Background(), tt.userID, tt.deviceID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantOldest != "" {
					var capErr *CapExceededError
					require.ErrorAs(t, err, &capErr)
					assert.Equal(t, tt.wantOldest, capErr.OldestDeviceID)
					assert.Equal(t, 3, capErr.Limit)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantCreated, b.Created)
				assert.Equal(t, tt.deviceID, b.Device.DeviceID)
				assert.Equal(t, tt.userID, b.Device.UserID)
			}
			if tt.wantDevices != nil {
				assert.Equal(t, tt.wantDevices, store.userDeviceIDs(tt.userID))
			}
		})
	}
}

// TestLedger_ResolveOrRegister_Idempotent は同じ(user, device)で2回呼んでも重複行が作られないことを検証します。
func TestLedger_ResolveOrRegister_Idempotent(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	ledger := NewLedger(store, 3, zap.NewNop())

	first, err := ledger.ResolveOrRegister(context.Background(), 1, "dev-a")
	require.NoError(t, err)
	second, err := ledger.ResolveOrRegister(context.Background(), 1, "dev-a")
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.Device.ID, second.Device.ID)
	assert.Len(t, store.devices, 1)
}

// TestLedger_ResolveOrRegister_ConflictPersists はユーザーAに紐づいたデバイスがユーザーBから常に競合になることを検証します。
func TestLedger_ResolveOrRegister_ConflictPersists(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	ledger := NewLedger(store, 3, zap.NewNop())

	_, err := ledger.ResolveOrRegister(context.Background(), 1, "dev-a")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := ledger.ResolveOrRegister(context.Background(), 2, "dev-a")
		assert.ErrorIs(t, err, ErrDeviceConflict)
	}
	assert.Empty(t, store.userDeviceIDs(2))
}

func TestLedger_ResolveOrRegister_RetriesDuplicateInsert(t *testing.T) {
	t.Parallel()

	t.Run("lost race to same user resolves as existing binding", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		ledger := NewLedger(store, 3, zap.NewNop())

		store.loseRaceTo("dev-a", 1)

		b, err := ledger.ResolveOrRegister(context.Background(), 1, "dev-a")
		require.NoError(t, err)
		assert.False(t, b.Created)
	})

	t.Run("lost race to another user resolves as conflict", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		ledger := NewLedger(store, 3, zap.NewNop())

		store.loseRaceTo("dev-a", 2)

		_, err := ledger.ResolveOrRegister(context.Background(), 1, "dev-a")
		assert.ErrorIs(t, err, ErrDeviceConflict)
	})

	t.Run("gives up after bounded attempts", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		ledger := NewLedger(store, 3, zap.NewNop())
		store.createHook = func(d *entity.Device) error { return ErrDuplicateDevice }

		_, err := ledger.ResolveOrRegister(context.Background(), 1, "dev-a")
		assert.ErrorIs(t, err, ErrDuplicateDevice)
	})
}

// loseRaceTo makes the next Create fail with ErrDuplicateDevice after binding
// deviceID to winner, mimicking a concurrent request that inserted first.
func (s *memoryStore) loseRaceTo(deviceID string, winner uint) {
	s.createHook = func(d *entity.Device) error {
		s.createHook = nil
		s.seed(deviceID, winner, time.Now())
		return ErrDuplicateDevice
	}
}

func TestLedger_EvictOldest(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("removes exactly the oldest binding", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		store.seed("dev-b", 1, base.Add(time.Minute))
		store.seed("dev-a", 1, base)
		store.seed("dev-c", 1, base.Add(2*time.Minute))
		store.seed("other", 2, base.Add(-time.Hour))
		ledger := NewLedger(store, 3, zap.NewNop())

		evicted, err := ledger.EvictOldest(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "dev-a", evicted)
		assert.Equal(t, []string{"dev-b", "dev-c"}, store.userDeviceIDs(1))
		assert.Equal(t, []string{"other"}, store.userDeviceIDs(2))
	})

	t.Run("ties are broken by id", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		store.seed("first", 1, base)
		store.seed("second", 1, base)
		ledger := NewLedger(store, 3, zap.NewNop())

		evicted, err := ledger.EvictOldest(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, "first", evicted)
	})

	t.Run("no bindings", func(t *testing.T) {
		t.Parallel()

		ledger := NewLedger(newMemoryStore(), 3, zap.NewNop())

		_, err := ledger.EvictOldest(context.Background(), 1)
		assert.ErrorIs(t, err, ErrDeviceNotFound)
	})
}

func TestLedger_RegisterWithEviction(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("evicts oldest then registers", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		store.seed("dev-a", 1, base)
		store.seed("dev-b", 1, base.Add(time.Minute))
		store.seed("dev-c", 1, base.Add(2*time.Minute))
		ledger := NewLedger(store, 3, zap.NewNop())
		ledger.now = func() time.Time { return base.Add(time.Hour) }

		b, err := ledger.RegisterWithEviction(context.Background(), 1, "dev-d")
		require.NoError(t, err)
		assert.True(t, b.Created)
		assert.Equal(t, []string{"dev-b", "dev-c", "dev-d"}, store.userDeviceIDs(1))
	})

	t.Run("eviction failure is logged and registration still runs", func(t *testing.T) {
		t.Parallel()

		core, logs := observer.New(zapcore.WarnLevel)
		store := newMemoryStore()
		store.deleteErr = errors.New("delete failed")
		ledger := NewLedger(store, 3, zap.New(core))

		b, err := ledger.RegisterWithEviction(context.Background(), 1, "dev-a")
		require.NoError(t, err)
		assert.True(t, b.Created)

		entries := logs.FilterMessage("device eviction failed, continuing with registration").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "dev-a", entries[0].ContextMap()["device_id"])
	})

	t.Run("eviction failure at cap still reports cap exceeded", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		store.seed("dev-a", 1, base)
		store.seed("dev-b", 1, base.Add(time.Minute))
		store.seed("dev-c", 1, base.Add(2*time.Minute))
		store.deleteErr = errors.New("delete failed")
		ledger := NewLedger(store, 3, zap.NewNop())

		_, err := ledger.RegisterWithEviction(context.Background(), 1, "dev-d")
		assert.ErrorIs(t, err, ErrDeviceCapExceeded)
	})

	t.Run("empty device id is rejected before evicting", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		store.seed("dev-a", 1, base)
		ledger := NewLedger(store, 3, zap.NewNop())

		_, err := ledger.RegisterWithEviction(context.Background(), 1, "")
		assert.ErrorIs(t, err, ErrDeviceIDRequired)
		assert.Equal(t, []string{"dev-a"}, store.userDeviceIDs(1))
	})
}

func TestLedger_RemoveDevice(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.seed("dev-a", 1, time.Now())
	ledger := NewLedger(store, 3, zap.NewNop())

	require.NoError(t, ledger.RemoveDevice(context.Background(), "dev-a"))
	assert.ErrorIs(t, ledger.RemoveDevice(context.Background(), "dev-a"), ErrDeviceNotFound)
	assert.ErrorIs(t, ledger.RemoveDevice(context.Background(), ""), ErrDeviceIDRequired)
}

func TestCapExceededError(t *testing.T) {
	t.Parallel()

	var err error = &CapExceededError{Limit: 3, OldestDeviceID: "dev-a"}
	assert.True(t, errors.Is(err, ErrDeviceCapExceeded))
	assert.False(t, errors.Is(err, ErrDeviceConflict))
	assert.Contains(t, err.Error(), "dev-a")
}
