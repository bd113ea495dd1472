// Package jwtmw resolves session credentials into caller identities and
// provides the gin middleware that enforces them.
package jwtmw

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"bookstore_backend/internal/shared/identity"
)

var (
	// ErrUnauthenticated is returned when no credential was presented.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidCredential is returned when a credential is present but fails verification.
	ErrInvalidCredential = errors.New("invalid credential")
)

// Resolver verifies session credentials. It has no side effects.
type Resolver struct {
	secret []byte
	parser *jwt.Parser
}

// NewResolver creates a Resolver for HS256 credentials signed with secret.
func NewResolver(secret string) *Resolver {
	return &Resolver{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Resolve verifies credential and decodes the identity it carries.
func (r *Resolver) Resolve(credential string) (identity.Identity, error) {
	if credential == "" {
		return identity.Identity{}, ErrUnauthenticated
	}
	if len(r.secret) == 0 {
		return identity.Identity{}, errors.New("jwt: empty secret")
	}

	var claims Claims
	token, err := r.parser.ParseWithClaims(credential, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		return identity.Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if claims.UserID == 0 {
		return identity.Identity{}, fmt.Errorf("%w: missing user id", ErrInvalidCredential)
	}
	role, err := identity.ParseRole(claims.Role)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	return identity.Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   role,
	}, nil
}
