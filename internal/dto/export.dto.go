package dto

import "time"

// DataExport is the GDPR Art. 15 document handed to the data subject.
type DataExport struct {
	ExportDate     time.Time          `json:"exportDate"`
	DataController DataController     `json:"dataController"`
	PersonalData   PersonalData       `json:"personalData"`
	Roles          []string           `json:"roles"`
	Bookings       []ExportBooking    `json:"bookings"`
	Favorites      []ExportStudio     `json:"favorites"`
	OwnedStudios   []ExportStudio     `json:"ownedStudios"`
	AuditLog       []ExportAuditEntry `json:"auditLog"`
}

type DataController struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
}

type PersonalData struct {
	ID              uint       `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	HasPassword     bool       `json:"hasPassword"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type ExportBooking struct {
	ID                    uint       `json:"id"`
	StudioID              uint       `json:"studioId"`
	ServiceName           string     `json:"serviceName,omitempty"`
	PreferredDate         string     `json:"preferredDate"`
	PreferredTime         string     `json:"preferredTime"`
	Status                string     `json:"status"`
	CustomerName          string     `json:"customerName"`
	CustomerEmail         string     `json:"customerEmail"`
	CustomerPhone         string     `json:"customerPhone"`
	Message               string     `json:"message,omitempty"`
	ExplicitHealthConsent *bool      `json:"explicitHealthConsent"`
	HealthConsentAt       *time.Time `json:"healthConsentAt"`
	HealthConsentText     *string    `json:"healthConsentText"`
	CreatedAt             time.Time  `json:"createdAt"`
}

type ExportStudio struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

type ExportAuditEntry struct {
	Action       string    `json:"action"`
	ResourceType string    `json:"resourceType"`
	ResourceID   string    `json:"resourceId"`
	IPAddress    string    `json:"ipAddress"`
	CreatedAt    time.Time `json:"createdAt"`
}
