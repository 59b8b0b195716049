package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/pirouette/studio/internal/models"
	"github.com/pirouette/studio/pkg/crypto"
)

// Bounds on the number of random bytes behind a session identifier. The
// encoded id of MaxSessionIDLength bytes fills the 128-char id column.
const (
	DefaultSessionIDLength = 48
	MinSessionIDLength     = 16
	MaxSessionIDLength     = 96
)

// SessionMetadata captures contextual information about the client at login.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
}

// StoreConfig describes tunable behaviour for the SessionStore.
type StoreConfig struct {
	IDLength int
	Clock    func() time.Time
}

// SessionStore owns the sessions table. Every write is a single set-based
// statement so concurrent sweeps and logouts never observe partial state.
type SessionStore struct {
	db    *gorm.DB
	idLen int
	now   func() time.Time
}

// NewSessionStore constructs a store backed by db.
func NewSessionStore(db *gorm.DB, cfg StoreConfig) (*SessionStore, error) {
	if db == nil {
		return nil, errors.New("session store: db is required")
	}

	length := cfg.IDLength
	if length <= 0 {
		length = DefaultSessionIDLength
	}
	if length < MinSessionIDLength || length > MaxSessionIDLength {
		return nil, fmt.Errorf("session store: id length %d outside [%d, %d] bytes",
			length, MinSessionIDLength, MaxSessionIDLength)
	}

	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionStore{db: db, idLen: length, now: clock}, nil
}

// Create persists a new active session expiring ttl from now.
func (s *SessionStore) Create(ctx context.Context, userID, role string, ttl time.Duration, meta SessionMetadata) (*models.Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("session store: user id is required")
	}
	role = models.NormalizeRole(role)
	if role == "" {
		return nil, errors.New("session store: unknown role")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session store: ttl must be positive, got %s", ttl)
	}

	id, err := crypto.GenerateToken(s.idLen)
	if err != nil {
		return nil, fmt.Errorf("session store: generate id: %w", err)
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:        id,
		UserID:    userID,
		Role:      role,
		IsActive:  true,
		ExpiresAt: now.Add(ttl),
		IPAddress: strings.TrimSpace(meta.IPAddress),
		UserAgent: strings.TrimSpace(meta.UserAgent),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, persistenceError("create session", err)
	}
	return session, nil
}

// Get loads a session regardless of its state.
func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrSessionNotFound
	}

	var session models.Session
	err := s.db.WithContext(ctx).Take(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, persistenceError("get session", err)
	}
	return &session, nil
}

// Deactivate marks a session inactive. Missing or already inactive sessions are a no-op.
func (s *SessionStore) Deactivate(ctx context.Context, id string) error {
	_, err := s.deactivate(ctx, id)
	return err
}

func (s *SessionStore) deactivate(ctx context.Context, id string) (int64, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, nil
	}

	result := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": s.now().UTC(),
		})
	if result.Error != nil {
		return 0, persistenceError("deactivate session", result.Error)
	}
	return result.RowsAffected, nil
}

// SweepExpired deactivates every active session whose expiry is at or before now.
func (s *SessionStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	result := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, persistenceError("sweep expired sessions", result.Error)
	}
	return result.RowsAffected, nil
}

// PurgeStale deletes inactive sessions last touched before olderThan.
func (s *SessionStore) PurgeStale(ctx context.Context, olderThan time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("is_active = ? AND updated_at < ?", false, olderThan.UTC()).
		Delete(&models.Session{})
	if result.Error != nil {
		return 0, persistenceError("purge stale sessions", result.Error)
	}
	return result.RowsAffected, nil
}

// ConflictingRole returns the role of the most recent valid session the user
// holds under a role other than role, or "" when there is none.
func (s *SessionStore) ConflictingRole(ctx context.Context, userID, role string, now time.Time) (string, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Select("role").
		Where("user_id = ? AND role <> ? AND is_active = ? AND expires_at > ?", userID, role, true, now.UTC()).
		Order("created_at DESC").
		Limit(1).
		Find(&sessions).Error
	if err != nil {
		return "", persistenceError("lookup conflicting sessions", err)
	}
	if len(sessions) == 0 {
		return "", nil
	}
	return sessions[0].Role, nil
}

// ListActive returns the user's valid sessions, newest first.
func (s *SessionStore) ListActive(ctx context.Context, userID string, now time.Time) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, now.UTC()).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, persistenceError("list sessions", err)
	}
	return sessions, nil
}

// DeactivateOtherRoles ends every active session the user holds outside keepRole.
func (s *SessionStore) DeactivateOtherRoles(ctx context.Context, userID, keepRole string) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("user_id = ? AND role <> ? AND is_active = ?", userID, keepRole, true).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": s.now().UTC(),
		})
	if result.Error != nil {
		return 0, persistenceError("deactivate other role sessions", result.Error)
	}
	return result.RowsAffected, nil
}
