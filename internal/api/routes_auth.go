package api

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/pirouette/studio/internal/auth"
	"github.com/pirouette/studio/internal/handlers"
	"github.com/pirouette/studio/internal/middleware"
)

type authRouteDeps struct {
	Handler          *handlers.AuthHandler
	Validator        *iauth.Validator
	MaintenanceToken string
	RateLimit        gin.HandlerFunc
}

// Logout must always clear the session cookies. It sits outside the CSRF
// guard and the rate limit.
const logoutPath = "/auth/logout"

func registerAuthRoutes(engine *gin.Engine, deps authRouteDeps) {
	requireSession := middleware.RequireSession(deps.Validator)

	engine.POST(logoutPath, deps.Handler.Logout)

	auth := engine.Group("/auth")
	auth.Use(deps.RateLimit)
	{
		auth.POST("/login", deps.Handler.Login)
		auth.GET("/me", requireSession, deps.Handler.Me)

		auth.GET("/sessions", requireSession, deps.Handler.ListSessions)
		auth.POST("/sessions/resolve", deps.Handler.ResolveConflict)
		auth.POST("/sessions/cleanup",
			middleware.MaintenanceAccess(deps.MaintenanceToken, deps.Validator),
			deps.Handler.CleanupSessions,
		)
	}
}
