package models

import "time"

type AuditLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID *uint  `gorm:"index" json:"user_id"`
	Action string `gorm:"size:50;not null;index" json:"action"`

	ResourceType string `gorm:"size:50" json:"resource_type"`
	ResourceID   string `gorm:"size:64" json:"resource_id"`
	Metadata     string `gorm:"type:text" json:"metadata"`
	IPAddress    string `gorm:"size:45" json:"ip_address"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// AuthToken backs magic links and email verification. Only the SHA-256
// hash of the token is stored.
type AuthToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	TokenHash string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Email     string     `gorm:"size:255;not null;index" json:"email"`
	Purpose   string     `gorm:"size:30;not null;index" json:"purpose"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`

	CreatedAt time.Time `json:"created_at"`
}
