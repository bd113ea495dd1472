// Package handler provides HTTP handlers for the device feature.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookstore_backend/internal/feature/device/domain/entity"
	"bookstore_backend/internal/feature/device/transport/http/dto"
	"bookstore_backend/internal/feature/device/usecase"
	jwtmw "bookstore_backend/internal/platform/jwt"
)

// DeviceUsecase defines the ledger operations exposed over HTTP.
type DeviceUsecase interface {
	ListDevices(ctx context.Context, userID uint) ([]*entity.Device, error)
	RemoveDevice(ctx context.Context, deviceID string) error
	Limit() int
}

// DeviceHandler serves device listing and administrative removal.
type DeviceHandler struct {
	devices DeviceUsecase
	log     *zap.Logger
}

// NewDeviceHandler creates a DeviceHandler.
func NewDeviceHandler(devices DeviceUsecase, log *zap.Logger) *DeviceHandler {
	return &DeviceHandler{devices: devices, log: log}
}

// ListMine returns the caller's bound devices.
func (h *DeviceHandler) ListMine(c *gin.Context) {
	id, ok := jwtmw.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHENTICATED", "error": "authentication required"})
		return
	}
	h.list(c, id.UserID)
}

// ListForUser returns another user's bound devices (administrative).
func (h *DeviceHandler) ListForUser(c *gin.Context) {
	var uri dto.UserDevicesURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "error": "invalid user id"})
		return
	}
	h.list(c, uri.UserID)
}

func (h *DeviceHandler) list(c *gin.Context, userID uint) {
	devices, err := h.devices.ListDevices(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("list devices failed", zap.Uint("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, dto.NewDeviceListResponse(devices, h.devices.Limit()))
}

// Remove deletes a device binding (administrative).
func (h *DeviceHandler) Remove(c *gin.Context) {
	var uri dto.DeviceURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "error": "invalid device id"})
		return
	}

	err := h.devices.RemoveDevice(c.Request.Context(), uri.DeviceID)
	switch {
	case err == nil:
		admin, _ := jwtmw.IdentityFrom(c)
		h.log.Info("device removed by administrator",
			zap.String("device_id", uri.DeviceID),
			zap.Uint("admin_id", admin.UserID),
		)
		c.Status(http.StatusNoContent)
	case errors.Is(err, usecase.ErrDeviceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "DEVICE_NOT_FOUND", "error": "device not found"})
	default:
		h.log.Error("remove device failed", zap.String("device_id", uri.DeviceID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "error": "internal server error"})
	}
}
