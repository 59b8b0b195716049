package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/pirouette/studio/internal/auditctx"
	"github.com/pirouette/studio/internal/models"
)

// AuditEntry captures a single audit event to persist.
type AuditEntry struct {
	EventType string
	UserID    string
	SessionID string
	IPAddress string
	UserAgent string
	Metadata  map[string]any
}

// AuditFilters encapsulates optional filters when querying audit logs.
type AuditFilters struct {
	EventType string
	UserID    string
	SessionID string
	Since     *time.Time
	Until     *time.Time
}

// AuditListOptions controls pagination and filtering for audit queries.
type AuditListOptions struct {
	Page     int
	PageSize int
	Filters  AuditFilters
}

// AuditService persists and retrieves audit log entries. Entries are never updated.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db}, nil
}

// Log stores an audit entry. Client IP and user agent fall back to the client
// recorded on ctx by the HTTP layer.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	eventType := strings.TrimSpace(entry.EventType)
	if eventType == "" {
		return errors.New("audit service: event type is required")
	}

	record := models.AuditLog{
		EventType: eventType,
		UserID:    optionalString(entry.UserID),
		SessionID: optionalString(entry.SessionID),
		IPAddress: strings.TrimSpace(entry.IPAddress),
		UserAgent: strings.TrimSpace(entry.UserAgent),
	}

	auditctx.Attribute(ctx, &record.IPAddress, &record.UserAgent)

	if len(entry.Metadata) > 0 {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("audit service: marshal metadata: %w", err)
		}
		record.Metadata = datatypes.JSON(encoded)
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("audit service: write %s: %w", eventType, err)
	}
	return nil
}

// LogLogout records a LOGOUT event. Either identifier may be empty when the
// request carried no usable session.
func (s *AuditService) LogLogout(ctx context.Context, userID, sessionID string) error {
	return s.Log(ctx, AuditEntry{
		EventType: models.AuditEventLogout,
		UserID:    userID,
		SessionID: sessionID,
	})
}

// LogSystemEvent records an arbitrary authentication event.
func (s *AuditService) LogSystemEvent(ctx context.Context, eventType, userID, sessionID string, metadata map[string]any) error {
	return s.Log(ctx, AuditEntry{
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		Metadata:  metadata,
	})
}

// List returns paginated audit logs ordered by creation time descending, plus
// the total number of rows matching the filters.
func (s *AuditService) List(ctx context.Context, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)

	filtered := s.db.WithContext(ctx).Model(&models.AuditLog{}).Scopes(opts.Filters.scope)

	var total int64
	if err := filtered.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}

	var results []models.AuditLog
	if err := filtered.Scopes(opts.paginate).Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}
	return results, total, nil
}

// CleanupOlderThan removes audit logs created before cutoff.
func (s *AuditService) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	if cutoff.IsZero() {
		return 0, errors.New("audit service: cutoff is required")
	}

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", result.Error)
	}

	return result.RowsAffected, nil
}

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

func (o AuditListOptions) paginate(query *gorm.DB) *gorm.DB {
	page := max(o.Page, 1)
	size := o.PageSize
	if size <= 0 || size > maxAuditPageSize {
		size = defaultAuditPageSize
	}
	return query.Offset((page - 1) * size).Limit(size)
}

func (f AuditFilters) scope(query *gorm.DB) *gorm.DB {
	if f.EventType != "" {
		query = query.Where("event_type = ?", f.EventType)
	}
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.SessionID != "" {
		query = query.Where("session_id = ?", f.SessionID)
	}
	if f.Since != nil {
		query = query.Where("created_at >= ?", f.Since.UTC())
	}
	if f.Until != nil {
		query = query.Where("created_at <= ?", f.Until.UTC())
	}
	return query
}
