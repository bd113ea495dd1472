// Package router builds the gin engine and its route table.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	accesshandler "bookstore_backend/internal/feature/access/transport/handler"
	authhandler "bookstore_backend/internal/feature/auth/transport/handler"
	devicehandler "bookstore_backend/internal/feature/device/transport/handler"
	platformhandler "bookstore_backend/internal/platform/http/handler"
	"bookstore_backend/internal/platform/http/middleware"
	jwtmw "bookstore_backend/internal/platform/jwt"
	"bookstore_backend/internal/shared/identity"
)

// Handlers groups the feature handlers mounted by NewRouter.
type Handlers struct {
	Auth   *authhandler.AuthHandler
	Access *accesshandler.AccessHandler
	Device *devicehandler.DeviceHandler
	Health *platformhandler.HealthHandler
}

// NewRouter mounts every route. authRequired resolves the session identity;
// accessLimit throttles the access endpoint per user.
func NewRouter(h Handlers, authRequired, accessLimit gin.HandlerFunc, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log), middleware.Recovery(log))

	// 認証不要
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	r.OPTIONS("/healthz", h.Health.Health)
	r.POST("/signup", h.Auth.Signup)
	r.POST("/login", h.Auth.Login)

	// 認証必須
	auth := r.Group("/")
	auth.Use(authRequired)
	{
		auth.GET("/access/:bookId", accessLimit, h.Access.GetAccess)
		auth.GET("/devices", h.Device.ListMine)
	}

	admin := r.Group("/admin")
	admin.Use(authRequired, jwtmw.RequireRole(identity.RoleAdmin, identity.RoleSuperAdmin))
	{
		admin.GET("/users/:userId/devices", h.Device.ListForUser)
		admin.DELETE("/devices/:deviceId", h.Device.Remove)
	}

	return r
}
