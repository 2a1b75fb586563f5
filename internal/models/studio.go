package models

import "time"

type Studio struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:120;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	Street     string `gorm:"size:255" json:"street"`
	PostalCode string `gorm:"size:10" json:"postal_code"`
	City       string `gorm:"size:100;index" json:"city"`
	Country    string `gorm:"size:2;default:'DE'" json:"country"`
	Phone      string `gorm:"size:30" json:"phone"`
	Email      string `gorm:"size:255" json:"email"`
	Website    string `gorm:"size:255" json:"website"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	Capacity int    `gorm:"not null;default:1" json:"capacity"`
	Timezone string `gorm:"size:50;default:'Europe/Berlin'" json:"timezone"`
	PhotoURL string `gorm:"size:512" json:"photo_url"`
	Active   bool   `gorm:"not null;default:true" json:"active"`

	Services []Service `gorm:"constraint:OnDelete:CASCADE;" json:"services,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StudioOwnership links owners to studios. A studio can have several.
type StudioOwnership struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	StudioID uint `gorm:"not null;uniqueIndex:idx_studio_owner" json:"studio_id"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_studio_owner;index" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	StudioID uint `gorm:"not null;index" json:"studio_id"`

	Name        string  `gorm:"size:100;not null" json:"name"`
	Description string  `gorm:"size:255" json:"description"`
	DurationMin int     `gorm:"not null" json:"duration_min"`
	Price       float64 `gorm:"not null" json:"price"`
	Active      bool    `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Favorite struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_favorite" json:"user_id"`
	StudioID uint `gorm:"not null;uniqueIndex:idx_favorite" json:"studio_id"`

	CreatedAt time.Time `json:"created_at"`
}
