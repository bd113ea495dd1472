// Package usecase implements the book access gate: device binding,
// entitlement and signed URL issuance for a single read request.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	deviceusecase "bookstore_backend/internal/feature/device/usecase"
	"bookstore_backend/internal/shared/identity"
)

// SignedURLTTL is the lifetime requested for every issued URL.
const SignedURLTTL = 5 * time.Minute

// DeviceLedger is the part of the device ledger the gate needs.
type DeviceLedger interface {
	ResolveOrRegister(ctx context.Context, userID uint, deviceID string) (deviceusecase.Binding, error)
	RegisterWithEviction(ctx context.Context, userID uint, deviceID string) (deviceusecase.Binding, error)
}

// AccessRequest is one attempt to open a book.
type AccessRequest struct {
	Identity identity.Identity
	DeviceID string
	BookID   uint
	// ConfirmEviction is set on the resubmission after a cap-exceeded answer.
	ConfirmEviction bool
}

// Grant is a successful authorization.
type Grant struct {
	URL       string
	ExpiresAt time.Time
	Binding   deviceusecase.Binding
}

type accessUsecase struct {
	devices      DeviceLedger
	entitlements EntitlementRepository
	books        BookRepository
	signer       ObjectSigner
	now          func() time.Time
	log          *zap.Logger
}

// NewAccessUsecase wires the gate.
func NewAccessUsecase(devices DeviceLedger, entitlements EntitlementRepository, books BookRepository, signer ObjectSigner, log *zap.Logger) *accessUsecase {
	return &accessUsecase{
		devices:      devices,
		entitlements: entitlements,
		books:        books,
		signer:       signer,
		now:          time.Now,
		log:          log,
	}
}

// Authorize runs device binding, entitlement, asset lookup and issuance in
// that order. Client-facing failures are returned as the feature sentinels
// (or the device ledger's); anything else is logged and returned wrapped.
func (u *accessUsecase) Authorize(ctx context.Context, req AccessRequest) (*Grant, error) {
	start := u.now()

	grant, err := u.authorize(ctx, req)
	if err != nil {
		if !isClientError(err) {
			u.log.Error("book access failed",
				zap.Uint("user_id", req.Identity.UserID),
				zap.Uint("book_id", req.BookID),
				zap.String("device_id", req.DeviceID),
				zap.Duration("duration", u.now().Sub(start)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	u.log.Info("book access granted",
		zap.Uint("user_id", req.Identity.UserID),
		zap.Uint("book_id", req.BookID),
		zap.String("role", req.Identity.Role.String()),
		zap.Bool("device_registered", grant.Binding.Created),
		zap.Duration("duration", u.now().Sub(start)),
	)
	return grant, nil
}

func (u *accessUsecase) authorize(ctx context.Context, req AccessRequest) (*Grant, error) {
	if req.BookID == 0 {
		return nil, ErrBookIDRequired
	}

	binding, err := u.bindDevice(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := PolicyFor(req.Identity.Role).Check(ctx, u.entitlements, req.Identity, req.BookID); err != nil {
		return nil, err
	}

	book, err := u.books.FindByID(ctx, req.BookID)
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load book: %w", err)
	}
	if !book.HasAsset() {
		return nil, ErrAssetMissing
	}

	expires := u.now().Add(SignedURLTTL)
	url, err := u.signer.SignedURL(ctx, book.FilePath, expires)
	if err != nil {
		// A path such as "gs://bucket/" names no object.
		if errors.Is(err, ErrAssetMissing) {
			return nil, ErrAssetMissing
		}
		return nil, fmt.Errorf("sign url: %w", err)
	}

	return &Grant{URL: url, ExpiresAt: expires, Binding: binding}, nil
}

// bindDevice evicts only when the caller confirmed it and the cap was actually hit.
func (u *accessUsecase) bindDevice(ctx context.Context, req AccessRequest) (deviceusecase.Binding, error) {
	binding, err := u.devices.ResolveOrRegister(ctx, req.Identity.UserID, req.DeviceID)
	if err == nil {
		return binding, nil
	}
	if !errors.Is(err, deviceusecase.ErrDeviceCapExceeded) || !req.ConfirmEviction {
		return deviceusecase.Binding{}, err
	}
	return u.devices.RegisterWithEviction(ctx, req.Identity.UserID, req.DeviceID)
}

func isClientError(err error) bool {
	for _, target := range []error{
		ErrBookIDRequired,
		ErrBookNotFound,
		ErrAssetMissing,
		ErrNotEntitled,
		deviceusecase.ErrDeviceIDRequired,
		deviceusecase.ErrDeviceConflict,
		deviceusecase.ErrDeviceCapExceeded,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
