package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Roles a studio account can hold. A user may hold several and signs in under one.
const (
	RoleStudent    = "STUDENT"
	RoleInstructor = "INSTRUCTOR"
	RoleAdmin      = "ADMIN"
)

// KnownRoles lists every role in display order.
var KnownRoles = []string{RoleStudent, RoleInstructor, RoleAdmin}

// NormalizeRole upper-cases and trims a role name, returning "" for unknown roles.
func NormalizeRole(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	for _, known := range KnownRoles {
		if role == known {
			return role
		}
	}
	return ""
}

// User is a studio account. The session core only reads it.
type User struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FullName     string `json:"full_name"`
	ProfileImage string `json:"profile_image"`

	IsVerified bool `gorm:"default:false" json:"is_verified"`
	IsActive   bool `gorm:"default:true" json:"is_active"`

	Roles    []UserRole `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
	Sessions []Session  `gorm:"foreignKey:UserID" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureUUID(&u.ID)
	return nil
}

// HasRole reports whether the user was granted role.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	role = NormalizeRole(role)
	if role == "" {
		return false
	}
	for _, granted := range u.Roles {
		if granted.Role == role {
			return true
		}
	}
	return false
}

// RoleNames returns the granted roles in KnownRoles order.
func (u *User) RoleNames() []string {
	if u == nil {
		return nil
	}
	names := make([]string, 0, len(u.Roles))
	for _, known := range KnownRoles {
		for _, granted := range u.Roles {
			if granted.Role == known {
				names = append(names, known)
				break
			}
		}
	}
	return names
}

// UserRole grants a role to a user.
type UserRole struct {
	UserID    string    `gorm:"primaryKey;type:uuid" json:"user_id"`
	Role      string    `gorm:"primaryKey;size:32" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
