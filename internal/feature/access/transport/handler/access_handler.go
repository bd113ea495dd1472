// Package handler provides the HTTP handler for book access.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookstore_backend/internal/feature/access/transport/http/dto"
	"bookstore_backend/internal/feature/access/usecase"
	deviceusecase "bookstore_backend/internal/feature/device/usecase"
	jwtmw "bookstore_backend/internal/platform/jwt"
)

const (
	// HeaderDeviceID carries the client-generated device identifier.
	HeaderDeviceID = "X-Device-Id"
	// HeaderEvictConfirm set to true confirms eviction of the oldest device.
	HeaderEvictConfirm = "X-Evict-Confirm"

	maxDeviceIDLength = 255
)

// AccessUsecase is implemented by the access usecase.
type AccessUsecase interface {
	Authorize(ctx context.Context, req usecase.AccessRequest) (*usecase.Grant, error)
}

// AccessHandler serves GET /access/:bookId.
type AccessHandler struct {
	access AccessUsecase
	log    *zap.Logger
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(access AccessUsecase, log *zap.Logger) *AccessHandler {
	return &AccessHandler{access: access, log: log}
}

// GetAccess authorizes the caller's device for the book and answers with a
// short-lived signed URL.
func (h *AccessHandler) GetAccess(c *gin.Context) {
	id, ok := jwtmw.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHENTICATED", Error: "authentication required"})
		return
	}

	var uri dto.AccessURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: "INVALID_REQUEST", Error: "invalid book id"})
		return
	}

	deviceID := deviceIDFrom(c)
	if deviceID == "" || len(deviceID) > maxDeviceIDLength {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: "INVALID_REQUEST", Error: "device id is required"})
		return
	}

	grant, err := h.access.Authorize(c.Request.Context(), usecase.AccessRequest{
		Identity:        id,
		DeviceID:        deviceID,
		BookID:          uri.BookID,
		ConfirmEviction: evictionConfirmed(c),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.AccessResponse{URL: grant.URL, ExpiresAt: grant.ExpiresAt})
}

func (h *AccessHandler) writeError(c *gin.Context, err error) {
	h.log.Debug("access denied", zap.Error(err), zap.String("remote_addr", c.ClientIP()))

	var capErr *deviceusecase.CapExceededError
	switch {
	case errors.As(err, &capErr):
		c.JSON(http.StatusConflict, dto.DeviceCapExceededResponse{
			Code:                 "DEVICE_CAP_EXCEEDED",
			Error:                "device limit reached",
			RequiresConfirmation: true,
			OldestDeviceID:       capErr.OldestDeviceID,
			Limit:                capErr.Limit,
		})
	case errors.Is(err, deviceusecase.ErrDeviceIDRequired), errors.Is(err, usecase.ErrBookIDRequired):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: "INVALID_REQUEST", Error: err.Error()})
	case errors.Is(err, deviceusecase.ErrDeviceConflict):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Code: "DEVICE_CONFLICT", Error: "device is registered to another account"})
	case errors.Is(err, usecase.ErrNotEntitled):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Code: "NOT_ENTITLED", Error: "book not purchased"})
	case errors.Is(err, usecase.ErrBookNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: "BOOK_NOT_FOUND", Error: "book not found"})
	case errors.Is(err, usecase.ErrAssetMissing):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: "ASSET_MISSING", Error: "book file is not available"})
	default:
		// logged with request context by the usecase
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Error: "internal server error"})
	}
}

func deviceIDFrom(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader(HeaderDeviceID)); v != "" {
		return v
	}
	return strings.TrimSpace(c.Query("deviceId"))
}

func evictionConfirmed(c *gin.Context) bool {
	raw := c.GetHeader(HeaderEvictConfirm)
	if raw == "" {
		raw = c.Query("confirmEvict")
	}
	ok, _ := strconv.ParseBool(raw)
	return ok
}
