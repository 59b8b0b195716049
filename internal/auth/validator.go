package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pirouette/studio/internal/models"
	"github.com/pirouette/studio/pkg/logger"
	"github.com/pirouette/studio/pkg/metrics"
)

// Failure messages returned to callers. They never reveal whether a session
// or account exists.
const (
	MessageNotAuthenticated = "Not authenticated"
	MessageSessionInvalid   = "Session expired or invalid"
	MessageAccountNotFound  = "Account not found"
	MessageRoleConflict     = "Role conflict detected"
)

// Credentials are the identifiers a request presented, typically from cookies.
type Credentials struct {
	SessionID string
	// ClaimedUserID is informational; ownership is always taken from the session row.
	ClaimedUserID string
}

// Result is the outcome of a validation.
type Result struct {
	IsValid         bool
	Error           string
	User            *models.User
	SessionID       string
	UserRole        string
	ConflictingRole string
}

// Validator answers whether presented credentials map to a usable session. It
// never writes.
type Validator struct {
	sessions *SessionStore
	users    UserLookup
	now      func() time.Time
	log      *zap.Logger
}

// NewValidator constructs a Validator.
func NewValidator(sessions *SessionStore, users UserLookup, clock func() time.Time) (*Validator, error) {
	if sessions == nil {
		return nil, errors.New("validator: session store is required")
	}
	if users == nil {
		return nil, errors.New("validator: user lookup is required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Validator{
		sessions: sessions,
		users:    users,
		now:      clock,
		log:      logger.WithModule("auth"),
	}, nil
}

// Validate checks the presented credentials. A non-nil error is returned only
// for storage failures; every authentication failure is reported in Result.
func (v *Validator) Validate(ctx context.Context, creds Credentials) (Result, error) {
	result, err := v.validate(ctx, creds)
	outcome := outcomeLabel(result, err)
	metrics.SessionValidations.WithLabelValues(outcome).Inc()
	return result, err
}

func (v *Validator) validate(ctx context.Context, creds Credentials) (Result, error) {
	sessionID := strings.TrimSpace(creds.SessionID)
	if sessionID == "" {
		return Result{Error: MessageNotAuthenticated}, nil
	}

	now := v.now()

	session, err := v.sessions.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return Result{Error: MessageSessionInvalid}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if !session.IsValidAt(now) {
		return Result{Error: MessageSessionInvalid}, nil
	}

	if claimed := strings.TrimSpace(creds.ClaimedUserID); claimed != "" && claimed != session.UserID {
		v.log.Debug("claimed user does not own session",
			zap.String("claimed_user_id", claimed),
			zap.String("session_user_id", session.UserID))
	}

	user, err := v.users.FindActiveUser(ctx, session.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return Result{Error: MessageAccountNotFound}, nil
	}
	if err != nil {
		return Result{}, err
	}

	conflict, err := v.sessions.ConflictingRole(ctx, session.UserID, session.Role, now)
	if err != nil {
		return Result{}, err
	}
	if conflict != "" {
		return Result{
			Error:           MessageRoleConflict,
			SessionID:       session.ID,
			UserRole:        session.Role,
			ConflictingRole: conflict,
		}, nil
	}

	return Result{
		IsValid:   true,
		User:      user,
		SessionID: session.ID,
		UserRole:  session.Role,
	}, nil
}

func outcomeLabel(result Result, err error) string {
	switch {
	case err != nil:
		return "error"
	case result.IsValid:
		return "valid"
	case result.Error == MessageNotAuthenticated:
		return "unauthenticated"
	case result.Error == MessageAccountNotFound:
		return "account"
	case result.Error == MessageRoleConflict:
		return "conflict"
	default:
		return "invalid"
	}
}
