package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pirouette/studio/internal/models"
	"github.com/pirouette/studio/pkg/logger"
	"github.com/pirouette/studio/pkg/metrics"
)

const (
	// DefaultSessionTTL is the lifetime of a session created at login.
	DefaultSessionTTL = 24 * time.Hour
	// DefaultRetention is how long inactive sessions are kept before purge.
	DefaultRetention = 30 * 24 * time.Hour
)

// AuditSink records authentication events. Implementations may fail; the
// lifecycle manager never lets a failure change an outcome.
type AuditSink interface {
	LogLogout(ctx context.Context, userID, sessionID string) error
	LogSystemEvent(ctx context.Context, eventType, userID, sessionID string, metadata map[string]any) error
}

// LifecycleConfig describes tunable behaviour for the Lifecycle manager.
type LifecycleConfig struct {
	SessionTTL time.Duration
	Retention  time.Duration
	Clock      func() time.Time
	Audit      AuditSink
}

// LogoutResult describes what a logout terminated.
type LogoutResult struct {
	SessionID string
	UserID    string
	// Terminated is false when the session was missing or already inactive.
	Terminated bool
}

// CleanupStats reports rows affected by one cleanup pass.
type CleanupStats struct {
	Expired int64
	Deleted int64
}

// ConflictResolution reports the outcome of ResolveRoleConflict.
type ConflictResolution struct {
	SessionID   string
	KeptRole    string
	Deactivated int64
}

// Lifecycle creates, terminates and cleans up sessions. It is the only writer
// of the session store.
type Lifecycle struct {
	store     *SessionStore
	audit     AuditSink
	ttl       time.Duration
	retention time.Duration
	now       func() time.Time
	log       *zap.Logger
}

// NewLifecycle constructs a lifecycle manager over store.
func NewLifecycle(store *SessionStore, cfg LifecycleConfig) (*Lifecycle, error) {
	if store == nil {
		return nil, errors.New("lifecycle: session store is required")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &Lifecycle{
		store:     store,
		audit:     cfg.Audit,
		ttl:       ttl,
		retention: retention,
		now:       clock,
		log:       logger.WithModule("auth"),
	}, nil
}

// SessionTTL returns the lifetime applied to new sessions.
func (l *Lifecycle) SessionTTL() time.Duration {
	return l.ttl
}

// StartSession creates a session for a user who has just authenticated.
func (l *Lifecycle) StartSession(ctx context.Context, userID, role string, meta SessionMetadata) (*models.Session, error) {
	session, err := l.store.Create(ctx, userID, role, l.ttl, meta)
	if err != nil {
		return nil, err
	}

	metrics.SessionsStarted.Inc()
	l.emit(ctx, "login", func(sink AuditSink) error {
		return sink.LogSystemEvent(ctx, models.AuditEventLogin, session.UserID, session.ID, map[string]any{
			"role":       session.Role,
			"expires_at": session.ExpiresAt,
		})
	})
	return session, nil
}

// RecordFailedLogin emits LOGIN_FAILED for a rejected login attempt.
func (l *Lifecycle) RecordFailedLogin(ctx context.Context, email, role, reason string) {
	l.emit(ctx, "login_failed", func(sink AuditSink) error {
		return sink.LogSystemEvent(ctx, models.AuditEventLoginFailed, "", "", map[string]any{
			"email":  email,
			"role":   role,
			"reason": reason,
		})
	})
}

// ActiveSessions lists the user's currently valid sessions, newest first.
func (l *Lifecycle) ActiveSessions(ctx context.Context, userID string) ([]models.Session, error) {
	return l.store.ListActive(ctx, userID, l.now())
}

// TerminateSession deactivates a session. Missing or inactive sessions are not an error.
func (l *Lifecycle) TerminateSession(ctx context.Context, sessionID string) error {
	_, err := l.store.deactivate(ctx, sessionID)
	return err
}

// Logout terminates the presented session and records the event. The owner is
// resolved from the store; an unknown or empty id still produces a LOGOUT event.
func (l *Lifecycle) Logout(ctx context.Context, sessionID string) (LogoutResult, error) {
	result := LogoutResult{SessionID: sessionID}

	if sessionID != "" {
		session, err := l.store.Get(ctx, sessionID)
		switch {
		case err == nil:
			result.UserID = session.UserID
		case !errors.Is(err, ErrSessionNotFound):
			l.log.Warn("logout owner lookup failed", zap.Error(err))
		}
	}

	affected, err := l.store.deactivate(ctx, sessionID)
	if err != nil {
		l.emit(ctx, "logout_error", func(sink AuditSink) error {
			return sink.LogSystemEvent(ctx, models.AuditEventLogoutError, result.UserID, sessionID, map[string]any{
				"error": err.Error(),
			})
		})
		return result, err
	}

	result.Terminated = affected > 0
	if result.Terminated {
		metrics.SessionsTerminated.Inc()
	}

	l.emit(ctx, "logout", func(sink AuditSink) error {
		return sink.LogLogout(ctx, result.UserID, sessionID)
	})
	return result, nil
}

// Cleanup sweeps expired sessions and purges inactive ones older than the
// retention window. Repeated calls only report newly affected rows.
func (l *Lifecycle) Cleanup(ctx context.Context, now time.Time) (CleanupStats, error) {
	var stats CleanupStats

	expired, err := l.store.SweepExpired(ctx, now)
	if err != nil {
		return stats, fmt.Errorf("lifecycle: cleanup: %w", err)
	}
	stats.Expired = expired

	deleted, err := l.store.PurgeStale(ctx, now.Add(-l.retention))
	if err != nil {
		return stats, fmt.Errorf("lifecycle: cleanup: %w", err)
	}
	stats.Deleted = deleted

	metrics.SessionCleanup.WithLabelValues("expired").Add(float64(expired))
	metrics.SessionCleanup.WithLabelValues("purged").Add(float64(deleted))

	l.emit(ctx, "session_cleanup", func(sink AuditSink) error {
		return sink.LogSystemEvent(ctx, models.AuditEventSessionCleanup, "", "", map[string]any{
			"expired_sessions": stats.Expired,
			"deleted_sessions": stats.Deleted,
		})
	})
	return stats, nil
}

// ResolveRoleConflict keeps the given session and deactivates every other
// active session its owner holds under a different role.
func (l *Lifecycle) ResolveRoleConflict(ctx context.Context, keepSessionID string) (ConflictResolution, error) {
	session, err := l.store.Get(ctx, keepSessionID)
	if err != nil {
		return ConflictResolution{}, err
	}
	if !session.IsValidAt(l.now()) {
		return ConflictResolution{}, ErrSessionNotFound
	}

	affected, err := l.store.DeactivateOtherRoles(ctx, session.UserID, session.Role)
	if err != nil {
		return ConflictResolution{}, err
	}
	if affected == 0 {
		return ConflictResolution{}, ErrNoRoleConflict
	}

	resolution := ConflictResolution{
		SessionID:   session.ID,
		KeptRole:    session.Role,
		Deactivated: affected,
	}

	l.emit(ctx, "role_conflict_resolved", func(sink AuditSink) error {
		return sink.LogSystemEvent(ctx, models.AuditEventRoleConflictResolved, session.UserID, session.ID, map[string]any{
			"kept_role":            session.Role,
			"deactivated_sessions": affected,
		})
	})
	return resolution, nil
}

// emit hands an event to the audit sink, containing errors and panics.
func (l *Lifecycle) emit(ctx context.Context, event string, write func(AuditSink) error) {
	if l.audit == nil {
		return
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			metrics.AuditWriteFailures.Inc()
			l.log.Warn("audit sink panicked",
				zap.String("event", event),
				zap.Any("panic", recovered))
		}
	}()

	if err := write(l.audit); err != nil {
		metrics.AuditWriteFailures.Inc()
		l.log.Warn("audit write failed",
			zap.String("event", event),
			zap.Error(err))
	}
}
