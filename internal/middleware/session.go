package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/pirouette/studio/internal/auth"
	"github.com/pirouette/studio/internal/models"
	"github.com/pirouette/studio/pkg/crypto"
	"github.com/pirouette/studio/pkg/errors"
	"github.com/pirouette/studio/pkg/logger"
	"github.com/pirouette/studio/pkg/response"
)

// Cookies carrying the session. Only the session id is trusted; the other two
// are convenience copies for the browser client.
const (
	SessionCookieName  = "session_id"
	UserIDCookieName   = "user_id"
	UserRoleCookieName = "user_role"
)

// Context keys populated by RequireSession.
const (
	CtxUserKey      = "authUser"
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"
	CtxRoleKey      = "userRole"
	CtxResultKey    = "authResult"
)

// CredentialsFromRequest reads the session cookies presented by the client.
func CredentialsFromRequest(c *gin.Context) iauth.Credentials {
	sessionID, _ := c.Cookie(SessionCookieName)
	userID, _ := c.Cookie(UserIDCookieName)
	return iauth.Credentials{
		SessionID:     strings.TrimSpace(sessionID),
		ClaimedUserID: strings.TrimSpace(userID),
	}
}

// ValidationError maps a failed validation to the error rendered to clients.
func ValidationError(result iauth.Result) *errors.AppError {
	switch result.Error {
	case iauth.MessageNotAuthenticated:
		return errors.ErrNotAuthenticated
	case iauth.MessageAccountNotFound:
		return errors.ErrAccountNotFound
	case iauth.MessageRoleConflict:
		return errors.ErrRoleConflict
	default:
		return errors.ErrSessionInvalid
	}
}

// RespondInvalidSession writes the 401 body for a failed validation, including
// the conflicting role when there is one.
func RespondInvalidSession(c *gin.Context, result iauth.Result) {
	appErr := ValidationError(result)
	if result.ConflictingRole != "" {
		appErr = appErr.WithField("conflictingRole", result.ConflictingRole)
	}
	response.Error(c, appErr)
}

// RequireSession validates the session cookie and stores the caller's identity
// on the gin context. Requests without a valid session are rejected with 401.
func RequireSession(validator *iauth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c, validator) {
			c.Next()
		}
	}
}

// RequireRole rejects callers whose active role is not one of roles. It must
// run after RequireSession.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := newRoleSet(roles...)
	return func(c *gin.Context) {
		if allowed.admit(c) {
			c.Next()
		}
	}
}

// MaintenanceAccess admits callers presenting the maintenance bearer token or a
// valid ADMIN session. An empty token disables the bearer path.
func MaintenanceAccess(token string, validator *iauth.Validator) gin.HandlerFunc {
	token = strings.TrimSpace(token)
	admins := newRoleSet(models.RoleAdmin)

	return func(c *gin.Context) {
		if bearer, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if token != "" && crypto.EqualTokens(token, bearer) {
				c.Next()
				return
			}
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrNotAuthenticated)
			c.Abort()
			return
		}

		if authenticate(c, validator) && admins.admit(c) {
			c.Next()
		}
	}
}

// authenticate validates the session cookies and records the identity. On
// failure it writes the response, aborts and reports false.
func authenticate(c *gin.Context, validator *iauth.Validator) bool {
	result, err := validator.Validate(c.Request.Context(), CredentialsFromRequest(c))
	if err != nil {
		logger.WithModule("auth").Error("session validation failed", zap.Error(err))
		response.Error(c, errors.ErrPersistence.WithInternal(err))
		c.Abort()
		return false
	}
	if !result.IsValid {
		RespondInvalidSession(c, result)
		c.Abort()
		return false
	}

	setIdentity(c, result)
	return true
}

func setIdentity(c *gin.Context, result iauth.Result) {
	c.Set(CtxResultKey, result)
	c.Set(CtxUserKey, result.User)
	c.Set(CtxUserIDKey, result.User.ID)
	c.Set(CtxSessionIDKey, result.SessionID)
	c.Set(CtxRoleKey, result.UserRole)
}

type roleSet map[string]struct{}

func newRoleSet(roles ...string) roleSet {
	set := make(roleSet, len(roles))
	for _, role := range roles {
		set[models.NormalizeRole(role)] = struct{}{}
	}
	return set
}

func (s roleSet) admit(c *gin.Context) bool {
	if _, ok := s[c.GetString(CtxRoleKey)]; !ok {
		response.Error(c, errors.ErrForbidden)
		c.Abort()
		return false
	}
	return true
}

func bearerToken(header string) (string, bool) {
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

