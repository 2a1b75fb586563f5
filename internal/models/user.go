package models

import "time"

type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Email        string  `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash *string `gorm:"size:255" json:"-"`
	Name         string  `gorm:"size:100" json:"name"`
	Phone        string  `gorm:"size:30" json:"phone"`
	Role         string  `gorm:"size:20;not null;default:'CUSTOMER'" json:"role"`

	Active          bool       `gorm:"not null;default:true" json:"active"`
	Suspended       bool       `gorm:"not null;default:false" json:"suspended"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`

	RoleAssignments []RoleAssignment `gorm:"constraint:OnDelete:CASCADE;" json:"role_assignments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Passwordless reports whether the account can only sign in through a link.
func (u *User) Passwordless() bool {
	return u.PasswordHash == nil || *u.PasswordHash == ""
}

// RoleAssignment grants an extra role on top of User.Role.
type RoleAssignment struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_user_role" json:"user_id"`
	Role   string `gorm:"size:20;not null;uniqueIndex:idx_user_role" json:"role"`

	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`

	CreatedAt time.Time `json:"created_at"`
}

type OAuthAccount struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	UserID            uint   `gorm:"not null;index" json:"user_id"`
	Provider          string `gorm:"size:30;not null;uniqueIndex:idx_oauth_provider_account" json:"provider"`
	ProviderAccountID string `gorm:"size:255;not null;uniqueIndex:idx_oauth_provider_account" json:"provider_account_id"`

	CreatedAt time.Time `json:"created_at"`
}

// LegacyCustomer is a pre-unification customer row without login.
// MigratedUserID is set once the row has been folded into users.
type LegacyCustomer struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Email string `gorm:"size:255;index" json:"email"`
	Name  string `gorm:"size:100;not null" json:"name"`
	Phone string `gorm:"size:30" json:"phone"`

	MigratedUserID *uint      `json:"migrated_user_id"`
	MigratedAt     *time.Time `json:"migrated_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
