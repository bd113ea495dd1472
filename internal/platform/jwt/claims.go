package jwtmw

import "github.com/golang-jwt/jwt/v5"

// Claims is the session credential payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID uint   `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
