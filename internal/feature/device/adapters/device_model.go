package adapters

import (
	"time"

	"bookstore_backend/internal/feature/device/domain/entity"
)

// DeviceModel is the GORM model for the devices table.
// The unique index on device_id keeps one owner per device; concurrent inserts
// of the same id resolve to exactly one winner.
type DeviceModel struct {
	ID        uint      `gorm:"primaryKey"`
	DeviceID  string    `gorm:"uniqueIndex;size:255;not null"`
	UserID    uint      `gorm:"index:idx_devices_user_created,priority:1;not null"`
	CreatedAt time.Time `gorm:"index:idx_devices_user_created,priority:2;not null"`
}

// TableName returns the table name for GORM.
func (DeviceModel) TableName() string {
	return "devices"
}

// ToEntity converts the GORM model to a domain entity.
func (m *DeviceModel) ToEntity() *entity.Device {
	return &entity.Device{
		ID:        m.ID,
		DeviceID:  m.DeviceID,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
	}
}

// DeviceModelFromEntity converts a domain entity to a GORM model.
func DeviceModelFromEntity(d *entity.Device) *DeviceModel {
	return &DeviceModel{
		ID:        d.ID,
		DeviceID:  d.DeviceID,
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt,
	}
}
