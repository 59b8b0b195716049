package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Session is a server-tracked login scoped to one role. Rows are deactivated on
// logout or expiry and only deleted later by the purge job.
type Session struct {
	ID        string    `gorm:"primaryKey;size:128" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Role      string    `gorm:"size:32;not null;index" json:"role"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

// BeforeCreate refuses rows without an identifier; ids are minted by the session store.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		return errors.New("session: id is required")
	}
	return nil
}

// IsValidAt reports whether the session grants access at the supplied instant.
func (s *Session) IsValidAt(now time.Time) bool {
	return s != nil && s.IsActive && s.ExpiresAt.After(now)
}
