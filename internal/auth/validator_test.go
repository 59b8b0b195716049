package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pirouette/studio/internal/models"
)

func TestValidateRoundTrip(t *testing.T) {
	fx := setupAuth(t)
	ctx := context.Background()
	user := createTestUser(t, fx.db, "round@studio.test", models.RoleStudent)

	session, err := fx.store.Create(ctx, user.ID, models.RoleStudent, time.Hour, SessionMetadata{})
	require.NoError(t, err)

	result, err := fx.validator.Validate(ctx, Credentials{SessionID: session.ID, ClaimedUserID: user.ID})
	require.NoError(t, err)
	require.True(t, result.IsValid)
	require.Empty(t, result.Error)
	require.Equal(t, session.ID, result.SessionID)
	require.Equal(t, models.RoleStudent, result.UserRole)
	require.NotNil(t, result.User)
	require.Equal(t, user.ID, result.User.ID)
}

func TestValidateWithoutSession(t *testing.T) {
	fx := setupAuth(t)

	result, err := fx.validator.Validate(context.Background(), Credentials{ClaimedUserID: "someone"})
	require.NoError(t, err)
	require.False(t, result.IsValid)
	require.Equal(t, MessageNotAuthenticated, result.Error)
}

func TestValidateDoesNotDistinguishMissingFromExpired(t *testing.T) {
	fx := setupAuth(t)
	ctx := context.Background()
	user := createTestUser(t, fx.db, "generic@studio.test", models.RoleStudent)

	expired, err := fx.store.Create(ctx, user.ID, models.RoleStudent, time.Minute, SessionMetadata{})
	require.NoError(t, err)
	revoked, err := fx.store.Create(ctx, user.ID, models.RoleStudent, time.Hour, SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, fx.store.Deactivate(ctx, revoked.ID))

	fx.clock.Advance(2 * time.Minute)

	for _, id := range []string{"does-not-exist", expired.ID, revoked.ID} {
		result, err := fx.validator.Validate(ctx, Credentials{SessionID: id})
		require.NoError(t, err)
		require.False(t, result.IsValid)
		require.Equal(t, MessageSessionInvalid, result.Error)
		require.Nil(t, result.User)
	}
}

func TestValidateExpiredButStillActiveSession(t *testing.T) {
	fx := setupAuth(t)
	ctx := context.Background()
	user := createTestUser(t, fx.db, "ttl@studio.test", models.RoleStudent)

	session, err := fx.store.Create(ctx, user.ID, models.RoleStudent, time.Second, SessionMetadata{})
	require.NoError(t, err)

	fx.clock.Advance(2 * time.Second)

	result, err := fx.validator.Validate(ctx, Credentials{SessionID: session.ID})
	require.NoError(t, err)
	require.False(t, result.IsValid)

	count, err := fx.store.SweepExpired(ctx, fx.clock.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	result, err = fx.validator.Validate(ctx, Credentials{SessionID: session.ID})
	require.NoError(t, err)
	require.False(t, result.IsValid)
	require.Equal(t, MessageSessionInvalid, result.Error)
}

func TestValidateDeactivatedAccount(t *testing.T) {
	fx := setupAuth(t)
	ctx := context.Background()
	user := createTestUser(t, fx.db, "gone@studio.test", models.RoleStudent)

	session, err := fx.store.Create(ctx, user.ID, models.RoleStudent, time.Hour, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, fx.db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

	result, err := fx.validator.Validate(ctx, Credentials{SessionID: session.ID})
	require.NoError(t, err)
	require.False(t, result.IsValid)
	require.Equal(t, MessageAccountNotFound, result.Error)
}

func TestValidateDeletedAccount(t *testing.T) {
	fx := setupAuth(t)
	ctx := context.Background()
	user := createTestUser(t, fx.db, "deleted@studio.test", models.RoleStudent)

	session, err := fx.store.Create(ctx, user.ID, models.RoleStudent, time.Hour, SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, fx.db.Delete(&models.User{}, "id = ?", user.ID).Error)

	result, err := fx.validator.Validate(ctx, Credentials{SessionID: session.ID})
	require.NoError(t, err)
	require.Equal(t, MessageAccountNotFound, result.Error)
}

func TestValidateReportsRoleConflict(t *testing.T) {
	fx := setupAuth(t)
	ctx := context.Background()
	user := createTestUser(t, fx.db, "both@studio.test", models.RoleStudent, models.RoleInstructor)

	student, err := fx.store.Create(ctx, user.ID, models.RoleStudent, time.Hour, SessionMetadata{})
	require.NoError(t, err)
	instructor, err := fx.store.Create(ctx, user.ID, models.RoleInstructor, time.Hour, SessionMetadata{})
	require.NoError(t, err)

	result, err := fx.validator.Validate(ctx, Credentials{SessionID: student.ID})
	require.NoError(t, err)
	require.False(t, result.IsValid)
	require.Equal(t, MessageRoleConflict, result.Error)
	require.Equal(t, models.RoleInstructor, result.ConflictingRole)
	require.Equal(t, models.RoleStudent, result.UserRole)

	result, err = fx.validator.Validate(ctx, Credentials{SessionID: instructor.ID})
	require.NoError(t, err)
	require.Equal(t, models.RoleStudent, result.ConflictingRole)
}

func TestValidateIgnoresClaimedUserMismatch(t *testing.T) {
	fx := setupAuth(t)
	ctx := context.Background()
	owner := createTestUser(t, fx.db, "owner@studio.test", models.RoleStudent)
	other := createTestUser(t, fx.db, "other@studio.test", models.RoleAdmin)

	session, err := fx.store.Create(ctx, owner.ID, models.RoleStudent, time.Hour, SessionMetadata{})
	require.NoError(t, err)

	result, err := fx.validator.Validate(ctx, Credentials{SessionID: session.ID, ClaimedUserID: other.ID})
	require.NoError(t, err)
	require.True(t, result.IsValid)
	require.Equal(t, owner.ID, result.User.ID)
}

func TestValidateSurfacesStorageFailure(t *testing.T) {
	store, mock := newMockStore(t)
	validator, err := NewValidator(store, &stubUsers{}, nil)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "sessions"`).WillReturnError(errors.New("disk full"))

	_, err = validator.Validate(context.Background(), Credentials{SessionID: "abc"})
	require.Error(t, err)
	require.True(t, IsPersistenceError(err))
}

func TestValidateIsReadOnly(t *testing.T) {
	fx := setupAuth(t)
	ctx := context.Background()
	user := createTestUser(t, fx.db, "ro@studio.test", models.RoleStudent)

	session, err := fx.store.Create(ctx, user.ID, models.RoleStudent, time.Minute, SessionMetadata{})
	require.NoError(t, err)

	fx.clock.Advance(time.Hour)
	_, err = fx.validator.Validate(ctx, Credentials{SessionID: session.ID})
	require.NoError(t, err)

	reloaded, err := fx.store.Get(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, reloaded.IsActive, "validation must not sweep")
}

type stubUsers struct{}

func (stubUsers) FindActiveUser(context.Context, string) (*models.User, error) {
	return nil, ErrUserNotFound
}
