package handlers

import (
	stdErrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/pirouette/studio/internal/auth"
	"github.com/pirouette/studio/internal/middleware"
	"github.com/pirouette/studio/pkg/errors"
	"github.com/pirouette/studio/pkg/response"
)

var errNoRoleConflict = errors.New("NO_ROLE_CONFLICT", "No role conflict to resolve", http.StatusConflict)

// POST /auth/sessions/cleanup
func (h *AuthHandler) CleanupSessions(c *gin.Context) {
	stats, err := h.lifecycle.Cleanup(requestContext(c), h.now().UTC())
	if err != nil {
		h.internalError(c, "session cleanup failed", err)
		return
	}

	h.log.Info("session cleanup completed",
		zap.Int64("expired", stats.Expired),
		zap.Int64("deleted", stats.Deleted))

	response.Success(c, http.StatusOK, gin.H{
		"message":         "Session cleanup completed",
		"expiredSessions": stats.Expired,
		"deletedSessions": stats.Deleted,
	})
}

// GET /auth/sessions
func (h *AuthHandler) ListSessions(c *gin.Context) {
	result, ok := sessionResult(c)
	if !ok {
		response.Error(c, errors.ErrNotAuthenticated)
		return
	}

	sessions, err := h.lifecycle.ActiveSessions(requestContext(c), result.User.ID)
	if err != nil {
		h.internalError(c, "list sessions failed", err)
		return
	}

	items := make([]gin.H, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, gin.H{
			"role":      session.Role,
			"current":   session.ID == result.SessionID,
			"createdAt": session.CreatedAt,
			"expiresAt": session.ExpiresAt,
			"ipAddress": session.IPAddress,
			"userAgent": session.UserAgent,
		})
	}

	c.Header("Cache-Control", middleware.NoStoreCacheControl)
	response.Success(c, http.StatusOK, gin.H{"sessions": items})
}

// POST /auth/sessions/resolve keeps the presented session and ends the
// caller's sessions under other roles. Only a session reported in conflict
// may be resolved.
func (h *AuthHandler) ResolveConflict(c *gin.Context) {
	ctx := requestContext(c)

	result, err := h.validator.Validate(ctx, middleware.CredentialsFromRequest(c))
	if err != nil {
		h.internalError(c, "session validation failed", err)
		return
	}
	if result.IsValid {
		response.Error(c, errNoRoleConflict)
		return
	}
	if result.Error != iauth.MessageRoleConflict {
		middleware.RespondInvalidSession(c, result)
		return
	}

	resolution, err := h.lifecycle.ResolveRoleConflict(ctx, result.SessionID)
	switch {
	case stdErrors.Is(err, iauth.ErrNoRoleConflict):
		response.Error(c, errNoRoleConflict)
		return
	case stdErrors.Is(err, iauth.ErrSessionNotFound):
		response.Error(c, errors.ErrSessionInvalid)
		return
	case err != nil:
		h.internalError(c, "resolve role conflict failed", err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":             "Role conflict resolved",
		"activeRole":          resolution.KeptRole,
		"deactivatedSessions": resolution.Deactivated,
	})
}
