package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceIDRequired is returned when the caller did not present a device identifier.
	ErrDeviceIDRequired = errors.New("device id is required")

	// ErrDeviceConflict is returned when the device is bound to another account.
	ErrDeviceConflict = errors.New("device is registered to another account")

	// ErrDeviceCapExceeded is matched by *CapExceededError.
	ErrDeviceCapExceeded = errors.New("device limit reached")

	// ErrDeviceNotFound is returned when no binding matches.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrDuplicateDevice is returned by the store when an insert hits the device id unique index.
	ErrDuplicateDevice = errors.New("device id already bound")
)

// CapExceededError reports that the user already has the maximum number of
// bound devices. OldestDeviceID is the eviction candidate shown to the user.
type CapExceededError struct {
	Limit          int
	OldestDeviceID string
}

func (e *CapExceededError) Error() string {
	return fmt.Sprintf("device limit of %d reached (oldest: %s)", e.Limit, e.OldestDeviceID)
}

// Is lets errors.Is(err, ErrDeviceCapExceeded) match.
func (e *CapExceededError) Is(target error) bool {
	return target == ErrDeviceCapExceeded
}
