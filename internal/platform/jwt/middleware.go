package jwtmw

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookstore_backend/internal/shared/identity"
)

// ContextIdentity is the gin context key holding the resolved identity.
const ContextIdentity = "identity"

// CredentialResolver is satisfied by *Resolver.
type CredentialResolver interface {
	Resolve(credential string) (identity.Identity, error)
}

// AuthRequired returns a gin middleware that resolves the caller from the
// session cookie or, failing that, from a Bearer Authorization header.
func AuthRequired(resolver CredentialResolver, cookieName string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := resolver.Resolve(credentialFrom(c, cookieName))
		switch {
		case err == nil:
		case errors.Is(err, ErrUnauthenticated):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHENTICATED", "error": "authentication required"})
			return
		case errors.Is(err, ErrInvalidCredential):
			log.Debug("credential rejected", zap.Error(err), zap.String("remote_addr", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "INVALID_CREDENTIAL", "error": "invalid or expired credential"})
			return
		default:
			log.Error("credential resolution failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "error": "internal server error"})
			return
		}

		c.Set(ContextIdentity, id)
		c.Next()
	}
}

// RequireRole must run after AuthRequired. Callers whose role is not listed get 403.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHENTICATED", "error": "authentication required"})
			return
		}
		if !slices.Contains(roles, id.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "FORBIDDEN", "error": "insufficient role"})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by AuthRequired.
func IdentityFrom(c *gin.Context) (identity.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return identity.Identity{}, false
	}
	id, ok := v.(identity.Identity)
	return id, ok
}

func credentialFrom(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			return v
		}
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
