// Package entity defines the domain entities for the device feature.
package entity

import "time"

// Device binds a client-generated device identifier to one user account.
// The identifier is an untrusted hint presented by the client; the ledger only
// guarantees that it maps to at most one user and that users stay under the cap.
type Device struct {
	ID        uint
	DeviceID  string
	UserID    uint
	CreatedAt time.Time
}
