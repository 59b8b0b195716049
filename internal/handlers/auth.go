package handlers

import (
	stdErrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/pirouette/studio/internal/auth"
	"github.com/pirouette/studio/internal/middleware"
	"github.com/pirouette/studio/internal/models"
	"github.com/pirouette/studio/pkg/errors"
	"github.com/pirouette/studio/pkg/logger"
	"github.com/pirouette/studio/pkg/metrics"
	"github.com/pirouette/studio/pkg/response"
)

// AuthHandler serves the session endpoints under /auth.
type AuthHandler struct {
	users     *iauth.UserDirectory
	validator *iauth.Validator
	lifecycle *iauth.Lifecycle
	cookies   CookieOptions
	now       func() time.Time
	log       *zap.Logger
}

// AuthHandlerOption customises an AuthHandler.
type AuthHandlerOption func(*AuthHandler)

// WithClock overrides the clock used for cookie lifetimes and cleanup.
func WithClock(now func() time.Time) AuthHandlerOption {
	return func(h *AuthHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewAuthHandler wires the handler to the auth core.
func NewAuthHandler(users *iauth.UserDirectory, validator *iauth.Validator, lifecycle *iauth.Lifecycle, cookies CookieOptions, opts ...AuthHandlerOption) (*AuthHandler, error) {
	if users == nil || validator == nil || lifecycle == nil {
		return nil, stdErrors.New("auth handler: users, validator and lifecycle are required")
	}

	h := &AuthHandler{
		users:     users,
		validator: validator,
		lifecycle: lifecycle,
		cookies:   cookies,
		now:       time.Now,
		log:       logger.WithModule("auth"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,notblank"`
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := requestContext(c)
	role := models.NormalizeRole(req.Role)

	user, err := h.users.Authenticate(ctx, req.Email, req.Password, role)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		switch {
		case stdErrors.Is(err, iauth.ErrInvalidCredentials):
			h.lifecycle.RecordFailedLogin(ctx, strings.TrimSpace(req.Email), role, "invalid_credentials")
			response.Error(c, errors.ErrInvalidCredentials)
		case stdErrors.Is(err, iauth.ErrRoleNotGranted):
			h.lifecycle.RecordFailedLogin(ctx, strings.TrimSpace(req.Email), role, "role_not_granted")
			response.Error(c, errors.ErrInvalidCredentials)
		default:
			h.internalError(c, "login failed", err)
		}
		return
	}

	session, err := h.lifecycle.StartSession(ctx, user.ID, role, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		h.internalError(c, "start session failed", err)
		return
	}
	metrics.AuthAttempts.WithLabelValues("success").Inc()

	if err := h.users.RecordLogin(ctx, user.ID); err != nil {
		h.log.Warn("record last login failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	h.cookies.setSessionCookies(c, session, h.now())
	c.Header("Cache-Control", middleware.NoStoreCacheControl)
	response.Success(c, http.StatusOK, gin.H{
		"user":       userPayload(user, session.Role),
		"sessionId":  session.ID,
		"activeRole": session.Role,
	})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	creds := middleware.CredentialsFromRequest(c)

	_, err := h.lifecycle.Logout(requestContext(c), creds.SessionID)

	h.cookies.clearSessionCookies(c)
	c.Header("Cache-Control", middleware.NoStoreCacheControl)

	if err != nil {
		h.internalError(c, "logout failed", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	result, ok := sessionResult(c)
	if !ok {
		response.Error(c, errors.ErrNotAuthenticated)
		return
	}

	c.Header("Cache-Control", middleware.NoStoreCacheControl)
	response.Success(c, http.StatusOK, gin.H{
		"user":       userPayload(result.User, result.UserRole),
		"sessionId":  result.SessionID,
		"activeRole": result.UserRole,
	})
}

func (h *AuthHandler) internalError(c *gin.Context, msg string, err error) {
	h.log.Error(msg, zap.Error(err))
	if iauth.IsPersistenceError(err) {
		response.Error(c, errors.ErrPersistence.WithInternal(err))
		return
	}
	response.Error(c, errors.ErrInternalServer.WithInternal(err))
}

func userPayload(user *models.User, role string) gin.H {
	return gin.H{
		"id":           user.ID,
		"email":        user.Email,
		"fullName":     user.FullName,
		"role":         role,
		"isVerified":   user.IsVerified,
		"profileImage": user.ProfileImage,
	}
}
