package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pirouette/studio/internal/auditctx"
	"github.com/pirouette/studio/internal/database/testutil"
	"github.com/pirouette/studio/internal/models"
)

func TestAuditServiceLogAndList(t *testing.T) {
	db := openAuditServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	ctx := auditctx.With(context.Background(), auditctx.Client{
		IPAddress: "192.0.2.10",
		UserAgent: "studio-test",
	})

	require.NoError(t, svc.LogSystemEvent(ctx, models.AuditEventLogin, "user-1", "sess-1", map[string]any{"role": "STUDENT"}))
	require.NoError(t, svc.LogLogout(ctx, "user-1", "sess-1"))

	logs, total, err := svc.List(ctx, AuditListOptions{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, logs, 2)

	login, _, err := svc.List(ctx, AuditListOptions{Filters: AuditFilters{EventType: models.AuditEventLogin}})
	require.NoError(t, err)
	require.Len(t, login, 1)
	require.Equal(t, "192.0.2.10", login[0].IPAddress)
	require.Equal(t, "studio-test", login[0].UserAgent)
	require.NotNil(t, login[0].UserID)
	require.Equal(t, "user-1", *login[0].UserID)

	var metadata map[string]any
	require.NoError(t, json.Unmarshal(login[0].Metadata, &metadata))
	require.Equal(t, "STUDENT", metadata["role"])
}

func TestAuditServiceLogoutWithoutSession(t *testing.T) {
	db := openAuditServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	require.NoError(t, svc.LogLogout(context.Background(), "", ""))

	logs, _, err := svc.List(context.Background(), AuditListOptions{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, models.AuditEventLogout, logs[0].EventType)
	require.Nil(t, logs[0].UserID)
	require.Nil(t, logs[0].SessionID)
}

func TestAuditServiceRequiresEventType(t *testing.T) {
	db := openAuditServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	require.Error(t, svc.Log(context.Background(), AuditEntry{UserID: "user-1"}))
}

func TestAuditServiceSurfacesWriteFailure(t *testing.T) {
	db := openAuditServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	require.NoError(t, db.Migrator().DropTable(&models.AuditLog{}))

	err = svc.LogLogout(context.Background(), "user-1", "sess-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "audit service: write LOGOUT")
}

func TestAuditServiceCleanupOlderThan(t *testing.T) {
	db := openAuditServiceTestDB(t)
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	now := time.Now().UTC()
	oldLog := models.AuditLog{
		EventType: models.AuditEventLogin,
		CreatedAt: now.AddDate(0, 0, -100),
	}
	require.NoError(t, db.Create(&oldLog).Error)
	require.NoError(t, svc.LogSystemEvent(context.Background(), models.AuditEventSessionCleanup, "", "", nil))

	rows, err := svc.CleanupOlderThan(context.Background(), now.AddDate(0, 0, -90))
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	_, total, err := svc.List(context.Background(), AuditListOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	_, err = svc.CleanupOlderThan(context.Background(), time.Time{})
	require.Error(t, err)
}

func openAuditServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}
