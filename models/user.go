package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the typed set of identities the portal distinguishes.
// Replaces ad-hoc string comparisons in handlers: every authorization
// decision goes through middleware.RequireRole with one of these.
type Role string

const (
	RoleUser     Role = "user"     // ordinary customer: browse, track, redeem
	RoleEmployee Role = "employee" // back-office: orders, visits, catalog
	RoleAdmin    Role = "admin"    // full back-office incl. benefits and coins
)

// ValidRole reports whether s is one of the known portal roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleUser, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

// PortalUser is a local snapshot of customer/staff data needed by the portal.
// Owned solely by this service; populated via sync worker from the auth
// service's user directory.
type PortalUser struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex;not null" json:"external_user_id"` // auth service UUID
	Username       string    `gorm:"index;not null" json:"username"`
	Email          string    `json:"email,omitempty"`
	FirstName      *string   `json:"first_name,omitempty"`
	LastName       *string   `json:"last_name,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	Locale         string    `gorm:"size:8;default:'en'" json:"locale"` // preferred content locale
	Role           Role      `gorm:"size:16;not null;default:'user'" json:"role"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	LastSeen *time.Time `json:"last_seen,omitempty"`
	IsBanned bool       `json:"is_banned" gorm:"default:false"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// RemoteUser mirrors the shape of the auth service's user payloads (read-only).
// Used by the sync worker when fetching directory changes.
type RemoteUser struct {
	ExternalID string     `json:"external_id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FirstName  *string    `json:"first_name"`
	LastName   *string    `json:"last_name"`
	Phone      *string    `json:"phone"`
	Locale     string     `json:"locale"`
	Role       string     `json:"role"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at"`
}
