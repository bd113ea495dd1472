// Package entity defines the domain entities for the auth feature.
package entity

import (
	"time"

	"bookstore_backend/internal/shared/identity"
)

// User represents a registered account.
// It contains authentication credentials, the account role and contact fields.
type User struct {
	// ID is the unique identifier for the user.
	ID uint `gorm:"primaryKey"`

	// Email is the user's email address used for authentication.
	// It must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Password is the bcrypt hash of the user's password.
	Password string `gorm:"size:255;not null"`

	// Role decides which checks the access gate applies.
	Role identity.Role `gorm:"size:16;not null;default:USER"`

	Name  string `gorm:"size:255"`
	Phone string `gorm:"size:32"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
