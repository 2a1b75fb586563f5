package models

import "time"

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	StudioID  uint     `gorm:"not null;index:idx_booking_slot,priority:1" json:"studio_id"`
	ServiceID *uint    `json:"service_id"`
	Service   *Service `gorm:"constraint:OnDelete:SET NULL;" json:"service,omitempty"`
	UserID    uint     `gorm:"not null;index" json:"user_id"`

	CustomerName  string `gorm:"size:100;not null" json:"customer_name"`
	CustomerEmail string `gorm:"size:255;not null" json:"customer_email"`
	CustomerPhone string `gorm:"size:30;not null" json:"customer_phone"`

	// Stored exactly as submitted (YYYY-MM-DD / HH:MM).
	PreferredDate string `gorm:"size:10;not null;index:idx_booking_slot,priority:2" json:"preferred_date"`
	PreferredTime string `gorm:"size:5;not null;index:idx_booking_slot,priority:3" json:"preferred_time"`

	Status  string `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	Message string `gorm:"type:text" json:"message"`

	ExplicitHealthConsent *bool      `json:"explicit_health_consent"`
	HealthConsentAt       *time.Time `json:"health_consent_at"`
	HealthConsentText     *string    `gorm:"type:text" json:"health_consent_text"`

	ConfirmedAt   *time.Time `json:"confirmed_at"`
	ConfirmedByID *uint      `json:"confirmed_by_id"`
	CancelledAt   *time.Time `json:"cancelled_at"`
	CancelledByID *uint      `json:"cancelled_by_id"`
	CompletedAt   *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
