package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pirouette/studio/internal/database/testutil"
	"github.com/pirouette/studio/internal/models"
	"github.com/pirouette/studio/pkg/crypto"
)

type testClock struct {
	mu      sync.Mutex
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{current: time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

type auditCall struct {
	EventType string
	UserID    string
	SessionID string
	Metadata  map[string]any
}

type recordingSink struct {
	mu     sync.Mutex
	events []auditCall
	err    error
	panic  bool
}

func (s *recordingSink) LogLogout(_ context.Context, userID, sessionID string) error {
	return s.record(auditCall{EventType: models.AuditEventLogout, UserID: userID, SessionID: sessionID})
}

func (s *recordingSink) LogSystemEvent(_ context.Context, eventType, userID, sessionID string, metadata map[string]any) error {
	return s.record(auditCall{EventType: eventType, UserID: userID, SessionID: sessionID, Metadata: metadata})
}

func (s *recordingSink) record(call auditCall) error {
	if s.panic {
		panic("audit sink exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, call)
	return s.err
}

func (s *recordingSink) Events(eventType string) []auditCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auditCall
	for _, event := range s.events {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out
}

type authFixture struct {
	db        *gorm.DB
	clock     *testClock
	store     *SessionStore
	users     *UserDirectory
	validator *Validator
	lifecycle *Lifecycle
	sink      *recordingSink
}

func setupAuth(t *testing.T) *authFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := newTestClock()
	sink := &recordingSink{}

	store, err := NewSessionStore(db, StoreConfig{Clock: clock.Now})
	require.NoError(t, err)

	users, err := NewUserDirectory(db, clock.Now)
	require.NoError(t, err)

	validator, err := NewValidator(store, users, clock.Now)
	require.NoError(t, err)

	lifecycle, err := NewLifecycle(store, LifecycleConfig{Clock: clock.Now, Audit: sink})
	require.NoError(t, err)

	return &authFixture{
		db:        db,
		clock:     clock,
		store:     store,
		users:     users,
		validator: validator,
		lifecycle: lifecycle,
		sink:      sink,
	}
}

func createTestUser(t *testing.T, db *gorm.DB, email string, roles ...string) *models.User {
	t.Helper()

	hashed, err := crypto.HashPassword("plie-releve-1")
	require.NoError(t, err)

	user := &models.User{
		Email:    email,
		Password: hashed,
		FullName: "Test Dancer",
		IsActive: true,
	}
	for _, role := range roles {
		user.Roles = append(user.Roles, models.UserRole{Role: role})
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
