// Package dto defines data transfer objects for the device feature's HTTP transport layer.
package dto

import (
	"time"

	"bookstore_backend/internal/feature/device/domain/entity"
)

// DeviceResponse is one bound device.
type DeviceResponse struct {
	DeviceID  string    `json:"deviceId"`
	UserID    uint      `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeviceListResponse wraps a user's bound devices.
type DeviceListResponse struct {
	Devices []DeviceResponse `json:"devices"`
	Limit   int              `json:"limit"`
}

// UserDevicesURI binds the :userId path parameter.
type UserDevicesURI struct {
	UserID uint `uri:"userId" binding:"required,min=1"`
}

// DeviceURI binds the :deviceId path parameter.
type DeviceURI struct {
	DeviceID string `uri:"deviceId" binding:"required,max=255"`
}

// NewDeviceListResponse converts entities into the response body.
func NewDeviceListResponse(devices []*entity.Device, limit int) DeviceListResponse {
	out := DeviceListResponse{Devices: make([]DeviceResponse, 0, len(devices)), Limit: limit}
	for _, d := range devices {
		out.Devices = append(out.Devices, DeviceResponse{
			DeviceID:  d.DeviceID,
			UserID:    d.UserID,
			CreatedAt: d.CreatedAt,
		})
	}
	return out
}
