package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit event types emitted by the authentication core.
const (
	AuditEventLogin                = "LOGIN"
	AuditEventLoginFailed          = "LOGIN_FAILED"
	AuditEventLogout               = "LOGOUT"
	AuditEventLogoutError          = "LOGOUT_ERROR"
	AuditEventSessionCleanup       = "SESSION_CLEANUP"
	AuditEventRoleConflictResolved = "ROLE_CONFLICT_RESOLVED"
)

// AuditLog is an append-only record of a security relevant action.
type AuditLog struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	EventType string         `gorm:"size:64;not null;index" json:"event_type"`
	UserID    *string        `gorm:"type:uuid;index" json:"user_id"`
	SessionID *string        `gorm:"size:128;index" json:"session_id"`
	Metadata  datatypes.JSON `json:"metadata"`
	IPAddress string         `json:"ip_address"`
	UserAgent string         `json:"user_agent"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	ensureUUID(&a.ID)
	return nil
}
